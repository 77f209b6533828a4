// Package sftpclient delivers analyzed catalogs to an SFTP drop.
package sftpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	defaultPort   = 22
	defaultDir    = "/"
	dialTimeout   = 20 * time.Second
	partialSuffix = ".part"
)

var ErrMissingCredentials = errors.New("sftp: missing SFTP_HOST / SFTP_USER / SFTP_PASS")

type Config struct {
	Host      string
	Port      int
	User      string
	Pass      string
	RemoteDir string

	// KnownHosts is the known_hosts file used to verify the server key.
	// Defaults to ~/.ssh/known_hosts.
	KnownHosts string

	// InsecureIgnoreHostKey skips host key verification.
	InsecureIgnoreHostKey bool
}

func (c Config) withDefaults() Config {
	if c.Port <= 0 {
		c.Port = defaultPort
	}
	if c.RemoteDir == "" {
		c.RemoteDir = defaultDir
	}
	if c.KnownHosts == "" && !c.InsecureIgnoreHostKey {
		if home, err := os.UserHomeDir(); err == nil {
			c.KnownHosts = filepath.Join(home, ".ssh", "known_hosts")
		}
	}
	return c
}

// Enabled reports whether enough is configured to attempt an upload.
func (c Config) Enabled() bool {
	return c.Host != "" && c.User != "" && c.Pass != ""
}

func (c Config) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func hostKeyCallback(cfg Config) (ssh.HostKeyCallback, error) {
	if cfg.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	if cfg.KnownHosts == "" {
		return nil, errors.New("sftp: no known_hosts file; set SFTP_KNOWN_HOSTS or SFTP_INSECURE_IGNORE_HOST_KEY")
	}
	cb, err := knownhosts.New(cfg.KnownHosts)
	if err != nil {
		return nil, fmt.Errorf("sftp: known_hosts %s: %w", cfg.KnownHosts, err)
	}
	return cb, nil
}

// UploadFile copies localPath to RemoteDir/remoteFileName on the configured
// server and returns the remote path.
func UploadFile(ctx context.Context, cfg Config, localPath string, remoteFileName string) (string, error) {
	if !cfg.Enabled() {
		return "", ErrMissingCredentials
	}
	cfg = cfg.withDefaults()

	cb, err := hostKeyCallback(cfg)
	if err != nil {
		return "", err
	}

	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Pass)},
		HostKeyCallback: cb,
		Timeout:         dialTimeout,
	}

	sshClient, err := dial(ctx, cfg.addr(), sshCfg)
	if err != nil {
		return "", err
	}
	defer sshClient.Close()

	sftpCli, err := sftp.NewClient(sshClient)
	if err != nil {
		return "", fmt.Errorf("sftp: new client: %w", err)
	}
	defer sftpCli.Close()

	return upload(ctx, sftpCli, cfg.RemoteDir, localPath, remoteFileName)
}

func dial(ctx context.Context, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("sftp: dial canceled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("sftp: dial error: %w", err)
	}

	// the handshake does not watch ctx; closing the conn unblocks it
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("sftp: dial canceled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("sftp: handshake: %w", err)
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// upload writes to a partial file first and renames it into place so a
// reader on the server never sees a half-written catalog.
func upload(ctx context.Context, cli *sftp.Client, remoteDir, localPath, remoteFileName string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("sftp: open local file: %w", err)
	}
	defer src.Close()

	if err := cli.MkdirAll(remoteDir); err != nil {
		return "", fmt.Errorf("sftp: mkdir %s: %w", remoteDir, err)
	}

	remotePath := path.Join(remoteDir, remoteFileName)
	partial := remotePath + partialSuffix

	dst, err := cli.Create(partial)
	if err != nil {
		return "", fmt.Errorf("sftp: create remote file: %w", err)
	}
	if _, err := io.Copy(dst, readerWithContext(ctx, src)); err != nil {
		dst.Close()
		cli.Remove(partial)
		return "", fmt.Errorf("sftp: upload copy: %w", err)
	}
	if err := dst.Close(); err != nil {
		cli.Remove(partial)
		return "", fmt.Errorf("sftp: close remote file: %w", err)
	}

	if err := cli.PosixRename(partial, remotePath); err != nil {
		// servers without the posix-rename extension refuse to overwrite
		_ = cli.Remove(remotePath)
		if err := cli.Rename(partial, remotePath); err != nil {
			cli.Remove(partial)
			return "", fmt.Errorf("sftp: rename %s: %w", remotePath, err)
		}
	}
	return remotePath, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
