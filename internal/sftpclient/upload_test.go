package sftpclient

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Host: "test-host", User: "u", Pass: "p", KnownHosts: "/tmp/kh"}.withDefaults()

	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, defaultDir, cfg.RemoteDir)
	assert.Equal(t, "/tmp/kh", cfg.KnownHosts)
	assert.Equal(t, "test-host:22", cfg.addr())
}

func TestConfigDefaultKnownHosts(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := Config{Host: "h", User: "u", Pass: "p"}.withDefaults()
	assert.Equal(t, filepath.Join(home, ".ssh", "known_hosts"), cfg.KnownHosts)

	insecure := Config{Host: "h", User: "u", Pass: "p", InsecureIgnoreHostKey: true}.withDefaults()
	assert.Empty(t, insecure.KnownHosts)
}

func TestConfigEnabled(t *testing.T) {
	testCases := []struct {
		cfg  Config
		want bool
	}{
		{Config{}, false},
		{Config{Host: "h", User: "u"}, false},
		{Config{Host: "h", User: "u", Pass: "p"}, true},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, tc.cfg.Enabled(), "%+v", tc.cfg)
	}
}

func TestUploadFileValidation(t *testing.T) {
	ctx := context.Background()

	_, err := UploadFile(ctx, Config{}, "test.txt", "test.txt")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	cfg := Config{Host: "127.0.0.1", Port: 1, User: "u", Pass: "p", KnownHosts: filepath.Join(t.TempDir(), "missing")}
	_, err = UploadFile(ctx, cfg, "test.txt", "test.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "known_hosts")
}

func TestUploadFileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{Host: "127.0.0.1", Port: 1, User: "u", Pass: "p", InsecureIgnoreHostKey: true}
	_, err := UploadFile(ctx, cfg, "test.txt", "test.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sftp: dial")
}

func TestHostKeyCallback(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	other, err := ssh.NewPublicKey(otherPub)
	require.NoError(t, err)

	khPath := filepath.Join(t.TempDir(), "known_hosts")
	line := knownhosts.Line([]string{"sftp.example.com:22"}, key)
	require.NoError(t, os.WriteFile(khPath, []byte(line+"\n"), 0o600))

	remote := &net.TCPAddr{IP: net.ParseIP("10.0.0.1"), Port: 22}

	cb, err := hostKeyCallback(Config{KnownHosts: khPath})
	require.NoError(t, err)
	assert.NoError(t, cb("sftp.example.com:22", remote, key), "known key")
	assert.Error(t, cb("sftp.example.com:22", remote, other), "mismatched key")
	assert.Error(t, cb("unknown.example.com:22", remote, key), "unknown host")

	insecure, err := hostKeyCallback(Config{InsecureIgnoreHostKey: true})
	require.NoError(t, err)
	assert.NoError(t, insecure("anything:22", remote, other))

	_, err = hostKeyCallback(Config{})
	assert.Error(t, err, "no known_hosts configured")
}

type pipeConn struct {
	io.Reader
	io.WriteCloser
}

// newPipeClient connects an sftp client to an in-process server backed by
// the local filesystem.
func newPipeClient(t *testing.T) *sftp.Client {
	t.Helper()
	c2sR, c2sW := io.Pipe()
	s2cR, s2cW := io.Pipe()

	server, err := sftp.NewServer(pipeConn{Reader: c2sR, WriteCloser: s2cW})
	require.NoError(t, err)
	go server.Serve()

	client, err := sftp.NewClientPipe(s2cR, c2sW)
	require.NoError(t, err)
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client
}

func TestUpload(t *testing.T) {
	local := filepath.Join(t.TempDir(), "HighSchoolClasses_Analyzed.csv")
	content := "Description,Concepts,Subject,Level\nAlgebra,['algebra'],['math'],High School\n"
	require.NoError(t, os.WriteFile(local, []byte(content), 0o644))

	remoteDir := filepath.Join(t.TempDir(), "drop", "nlu")
	cli := newPipeClient(t)

	for i := 0; i < 2; i++ {
		got, err := upload(context.Background(), cli, remoteDir, local, "analyzed.csv")
		require.NoError(t, err, "upload #%d", i)
		assert.Equal(t, filepath.Join(remoteDir, "analyzed.csv"), got)
	}

	b, err := os.ReadFile(filepath.Join(remoteDir, "analyzed.csv"))
	require.NoError(t, err)
	assert.Equal(t, content, string(b))
	assert.NoFileExists(t, filepath.Join(remoteDir, "analyzed.csv"+partialSuffix))
}

func TestUploadMissingLocalFile(t *testing.T) {
	cli := newPipeClient(t)
	_, err := upload(context.Background(), cli, t.TempDir(), filepath.Join(t.TempDir(), "nope.csv"), "x.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open local file")
}
