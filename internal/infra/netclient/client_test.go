package netclient

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Direct(t *testing.T) {
	c, err := New("", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Nil(t, c.Transport)
}

func TestNew_DefaultTimeout(t *testing.T) {
	c, err := New("", 0)
	require.NoError(t, err)
	assert.Equal(t, 120*time.Second, c.Timeout)
}

func TestNew_Socks(t *testing.T) {
	c, err := New("127.0.0.1:1080", time.Second)
	require.NoError(t, err)

	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, tr.DialContext)
	assert.Nil(t, tr.Proxy)
}
