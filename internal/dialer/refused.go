package dialer

// IsConnRefused reports whether err is the target actively refusing the
// connection, as opposed to any other dial failure. Only a direct dial can
// observe this; refusals behind an upstream proxy are not distinguishable.
func IsConnRefused(err error) bool {
	return err != nil && isConnRefused(err)
}
