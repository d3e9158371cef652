package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    func(c *Config)
		wantErr bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "127.0.0.1:9000", "-g", ":6000", "-d", "db", "-s", "secret", "-t", "5", "-w", "10", "-l", "debug"},
			want: func(c *Config) {
				c.EndpointAddrHTTP = "127.0.0.1:9000"
				c.EndpointAddrGRPC = ":6000"
				c.DatabaseDSN = "db"
				c.SecretKey = "secret"
				c.AccessTokenValidityDuration = 5 * time.Minute
				c.PasswordHashCost = 10
				c.LogLevel = "debug"
			},
		},
		{
			name: "config flag is skipped",
			args: []string{"-c", "server.json", "-s", "secret"},
			want: func(c *Config) { c.SecretKey = "secret" },
		},
		{
			name: "no flags keeps previous ttl",
			args: nil,
			want: func(c *Config) {},
		},
		{
			name:    "bad ttl",
			args:    []string{"-t", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Config
			got.LoadDefaults()
			got.AccessTokenValidityDuration = 90 * time.Second

			err := parseFlags(&got, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			var want Config
			want.LoadDefaults()
			want.AccessTokenValidityDuration = 90 * time.Second
			tt.want(&want)

			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
