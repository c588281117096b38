package remindlib

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

var _ SoundSource = (*ftpSoundSource)(nil)

// ftpSoundSource streams a sound file from an FTP or FTPS server in a
// single binary transfer. Credentials come from the URL userinfo and
// default to anonymous; they are used for login only and never persisted.
type ftpSoundSource struct {
	host     string // host:port
	ftpPath  string
	user     string
	password string
	useTLS   bool
}

func newFTPSoundSource(rawURL string) (*ftpSoundSource, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("ftp parse: %w", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "ftp" && scheme != "ftps" {
		return nil, fmt.Errorf("ftp: unexpected scheme %q", scheme)
	}
	ftpPath := parsed.Path
	if ftpPath == "" || ftpPath == "/" || path.Base(ftpPath) == "." {
		return nil, fmt.Errorf("ftp: url %q has no file path", rawURL)
	}

	user, password := "anonymous", "anonymous"
	if parsed.User != nil {
		user = parsed.User.Username()
		if p, ok := parsed.User.Password(); ok {
			password = p
		}
	}

	host := parsed.Host
	if !strings.Contains(host, ":") {
		host += ":21"
	}

	return &ftpSoundSource{
		host:     host,
		ftpPath:  ftpPath,
		user:     user,
		password: password,
		useTLS:   scheme == "ftps",
	}, nil
}

func (s *ftpSoundSource) connect(ctx context.Context) (*ftp.ServerConn, error) {
	dialOpts := []ftp.DialOption{
		ftp.DialWithTimeout(30 * time.Second),
		ftp.DialWithContext(ctx),
	}
	if s.useTLS {
		hostname := s.host
		if h, _, err := net.SplitHostPort(s.host); err == nil {
			hostname = h
		}
		dialOpts = append(dialOpts, ftp.DialWithExplicitTLS(&tls.Config{
			ServerName: hostname,
			MinVersion: tls.VersionTLS12,
		}))
	}
	conn, err := ftp.Dial(s.host, dialOpts...)
	if err != nil {
		return nil, err
	}
	if err := conn.Login(s.user, s.password); err != nil {
		conn.Quit()
		return nil, err
	}
	return conn, nil
}

func (s *ftpSoundSource) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	conn, err := s.connect(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("ftp connect: %w", err)
	}
	if err := conn.Type(ftp.TransferTypeBinary); err != nil {
		conn.Quit()
		return nil, 0, fmt.Errorf("ftp type: %w", err)
	}
	size, err := conn.FileSize(s.ftpPath)
	if err != nil {
		// Not every server implements SIZE; stream with unknown length.
		size = -1
	}
	resp, err := conn.Retr(s.ftpPath)
	if err != nil {
		conn.Quit()
		return nil, 0, fmt.Errorf("ftp retr: %w", err)
	}
	return &ftpStream{resp: resp, conn: conn}, size, nil
}

// ftpStream ties the transfer stream and the control connection together
// so closing the stream also quits the session.
type ftpStream struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (f *ftpStream) Read(p []byte) (int, error) { return f.resp.Read(p) }

func (f *ftpStream) Close() error {
	err := f.resp.Close()
	if qerr := f.conn.Quit(); err == nil {
		err = qerr
	}
	return err
}
