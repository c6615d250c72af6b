//go:build !windows || !(amd64 || arm64)
// +build !windows !amd64,!arm64

package etwtrace

// NewSystemSink returns ErrUnsupportedPlatform outside 64-bit Windows.
func NewSystemSink() (Sink, error) {
	return nil, ErrUnsupportedPlatform
}
