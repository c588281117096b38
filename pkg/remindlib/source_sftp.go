package remindlib

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

var _ SoundSource = (*sftpSoundSource)(nil)

// sftpSoundSource streams a sound file over SFTP. Password auth comes from
// the URL userinfo; without one it falls back to the default SSH key
// paths. Credentials are used for the session only and never persisted.
type sftpSoundSource struct {
	host     string // host:port
	path     string
	user     string
	password string
}

func newSFTPSoundSource(rawURL string) (*sftpSoundSource, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("sftp parse: %w", err)
	}
	if strings.ToLower(parsed.Scheme) != "sftp" {
		return nil, fmt.Errorf("sftp: unexpected scheme %q", parsed.Scheme)
	}
	if parsed.Path == "" || parsed.Path == "/" {
		return nil, fmt.Errorf("sftp: url %q has no file path", rawURL)
	}
	if parsed.User == nil || parsed.User.Username() == "" {
		return nil, fmt.Errorf("sftp: url %q has no user", rawURL)
	}

	host := parsed.Host
	if !strings.Contains(host, ":") {
		host += ":22"
	}
	password := ""
	if p, ok := parsed.User.Password(); ok {
		password = p
	}
	return &sftpSoundSource{
		host:     host,
		path:     parsed.Path,
		user:     parsed.User.Username(),
		password: password,
	}, nil
}

func (s *sftpSoundSource) authMethods() ([]ssh.AuthMethod, error) {
	if s.password != "" {
		return []ssh.AuthMethod{ssh.Password(s.password)}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"id_ed25519", "id_rsa"} {
		pemBytes, err := os.ReadFile(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(pemBytes)
		if err != nil {
			continue
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	return nil, fmt.Errorf("sftp: no password in url and no usable ssh key")
}

func (s *sftpSoundSource) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	auth, err := s.authMethods()
	if err != nil {
		return nil, 0, err
	}
	config := &ssh.ClientConfig{
		User: s.user,
		Auth: auth,
		// Sound URLs are user supplied one-offs; pinning host keys the way
		// a download manager would is not worth a trust store here.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	}
	sshConn, err := ssh.Dial("tcp", s.host, config)
	if err != nil {
		return nil, 0, fmt.Errorf("sftp dial: %w", err)
	}
	client, err := sftp.NewClient(sshConn)
	if err != nil {
		sshConn.Close()
		return nil, 0, fmt.Errorf("sftp client: %w", err)
	}
	f, err := client.Open(s.path)
	if err != nil {
		client.Close()
		sshConn.Close()
		return nil, 0, fmt.Errorf("sftp open: %w", err)
	}
	size := int64(-1)
	if fi, err := f.Stat(); err == nil {
		size = fi.Size()
	}
	// ctx is honoured by the fetch pipeline between chunks; the sftp
	// protocol itself has no per-read cancellation hook.
	_ = ctx
	return &sftpStream{f: f, client: client, conn: sshConn}, size, nil
}

// sftpStream closes the file, the sftp session and the ssh connection as
// one unit.
type sftpStream struct {
	f      *sftp.File
	client *sftp.Client
	conn   *ssh.Client
}

func (s *sftpStream) Read(p []byte) (int, error) { return s.f.Read(p) }

func (s *sftpStream) Close() error {
	err := s.f.Close()
	if cerr := s.client.Close(); err == nil {
		err = cerr
	}
	if cerr := s.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
