package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/underwriting-cli/internal/config"
)

func TestIsSpreadsheet(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Hayden Park UW.xlsx", true},
		{"MODEL.XLSM", true},
		{"legacy model.xls", true},
		{"notes.txt", false},
		{"readme", false},
		{"models.zip", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isSpreadsheet(tt.name), tt.name)
	}
}

func TestNewFTPClient_DefaultTimeout(t *testing.T) {
	c := NewFTPClient(config.DocstoreConfig{FTPAddr: "docs.example.com:21", FTPUser: "intake"})
	assert.Equal(t, "docs.example.com:21", c.addr)
	assert.Equal(t, "intake", c.user)
	assert.Equal(t, 60*time.Second, c.timeout)
}
