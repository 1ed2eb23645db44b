package main

import (
	"net/netip"
	"testing"
)

func TestTargetAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host    string
		port    int
		want    netip.AddrPort
		wantErr bool
	}{
		{host: "127.0.0.1", port: 6666, want: netip.MustParseAddrPort("127.0.0.1:6666")},
		{host: "::ffff:10.1.2.3", port: 80, want: netip.MustParseAddrPort("10.1.2.3:80")},
		{host: "::1", port: 80, wantErr: true},
		{host: "localhost", port: 80, wantErr: true},
		{host: "127.0.0.1", port: 0, wantErr: true},
		{host: "127.0.0.1", port: 70000, wantErr: true},
	}

	for _, tt := range tests {
		got, err := targetAddr(tt.host, tt.port)
		if tt.wantErr {
			if err == nil {
				t.Errorf("targetAddr(%q, %d) = %s, want error", tt.host, tt.port, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("targetAddr(%q, %d): %v", tt.host, tt.port, err)
			continue
		}
		if got != tt.want {
			t.Errorf("targetAddr(%q, %d) = %s want %s", tt.host, tt.port, got, tt.want)
		}
	}
}
