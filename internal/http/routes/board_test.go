package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close() //nolint:errcheck
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(b)
}

func TestBoardPage(t *testing.T) {
	st := newMemStore()
	require.NoError(t, st.Seed(context.Background()))
	_, h := newTestServer(t, st)

	srv := httptest.NewServer(h)
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	res, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	body := readBody(t, res)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "<h2>Mo</h2>")
	require.Contains(t, body, "<h2>So</h2>")
	require.Contains(t, body, "Kraft &amp; Physio")
	require.Contains(t, body, "Golf (9 Loch)")
	require.NotContains(t, body, "Beispielwoche geladen")
}

func TestInitSeedsAndFlashes(t *testing.T) {
	st := newMemStore()
	_, h := newTestServer(t, st)

	srv := httptest.NewServer(h)
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	// /init redirects to the freshly seeded board with a flash message
	res, err := client.Get(srv.URL + "/init")
	require.NoError(t, err)
	body := readBody(t, res)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "Beispielwoche geladen")
	require.Contains(t, body, "Golf (9 Loch)")

	// the flash is one-shot
	res, err = client.Get(srv.URL + "/")
	require.NoError(t, err)
	body = readBody(t, res)
	require.NotContains(t, body, "Beispielwoche geladen")
	require.Contains(t, body, "Golf (9 Loch)")
}
