package docstore

import (
	"io"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/config"
	"github.com/sells-group/underwriting-cli/internal/model"
)

// FTPClient crawls and downloads model files from an FTP-backed document
// store. Each call dials a fresh connection; the store drops idle sessions
// aggressively.
type FTPClient struct {
	addr     string
	user     string
	password string
	timeout  time.Duration
}

// NewFTPClient creates an FTP document-store client.
func NewFTPClient(cfg config.DocstoreConfig) *FTPClient {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &FTPClient{
		addr:     cfg.FTPAddr,
		user:     cfg.FTPUser,
		password: cfg.FTPPassword,
		timeout:  timeout,
	}
}

func (c *FTPClient) connect() (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(c.addr, ftp.DialWithTimeout(c.timeout))
	if err != nil {
		return nil, eris.Wrapf(err, "docstore: dial ftp %s", c.addr)
	}
	if err := conn.Login(c.user, c.password); err != nil {
		conn.Quit()
		return nil, eris.Wrap(err, "docstore: ftp login")
	}
	return conn, nil
}

// List walks one deal directory and returns descriptors for every
// spreadsheet file in it. The directory name doubles as the deal name.
func (c *FTPClient) List(dir string) ([]model.FileDescriptor, error) {
	conn, err := c.connect()
	if err != nil {
		return nil, err
	}
	defer conn.Quit()

	entries, err := conn.List(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "docstore: list %s", dir)
	}

	var files []model.FileDescriptor
	for _, e := range entries {
		if e.Type != ftp.EntryTypeFile || !isSpreadsheet(e.Name) {
			continue
		}
		files = append(files, model.FileDescriptor{
			Name:         e.Name,
			Path:         path.Join(dir, e.Name),
			Size:         int64(e.Size),
			ModifiedDate: e.Time,
			DealName:     path.Base(dir),
		})
	}

	zap.L().Debug("docstore: listed directory",
		zap.String("dir", dir), zap.Int("files", len(files)))
	return files, nil
}

// Download retrieves one file's raw bytes.
func (c *FTPClient) Download(filePath string) ([]byte, error) {
	conn, err := c.connect()
	if err != nil {
		return nil, err
	}
	defer conn.Quit()

	resp, err := conn.Retr(filePath)
	if err != nil {
		return nil, eris.Wrapf(err, "docstore: retrieve %s", filePath)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, eris.Wrapf(err, "docstore: read %s", filePath)
	}
	return data, nil
}

func isSpreadsheet(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".xlsx", ".xlsm", ".xls":
		return true
	}
	return false
}
