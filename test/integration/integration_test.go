// Package integration provides integration tests for hlsselect.
package integration

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/matryer/is"
)

const testMaster = `#EXTM3U
#EXT-X-VERSION:6
#EXT-X-INDEPENDENT-SEGMENTS
#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="atmos",NAME="Atmos",CHANNELS="16/JOC",URI="audio/atmos.m3u8"
#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="aac",NAME="Stereo",CHANNELS="2",URI="audio/aac.m3u8"
#EXT-X-STREAM-INF:BANDWIDTH=5000000,RESOLUTION=1920x1080,CODECS="avc1.640028,ec-3",AUDIO="atmos"
video/fhd.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=3000000,RESOLUTION=1280x720,CODECS="avc1.4d401f,mp4a.40.2",AUDIO="aac"
video/hd.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=8000000,RESOLUTION=3840x2160,CODECS="hvc1.2.4.L150,ec-3",AUDIO="atmos"
video/uhd.m3u8
#EXT-X-I-FRAME-STREAM-INF:BANDWIDTH=400000,RESOLUTION=1920x1080,URI="video/fhd-iframe.m3u8"
`

type record struct {
	URI           string   `json:"uri"`
	Bandwidth     uint64   `json:"bandwidth"`
	AudioChannels []uint32 `json:"audioChannels"`
	IFrame        bool     `json:"iframe"`
}

func decode(is *is.I, body string) []record {
	var records []record
	is.NoErr(json.Unmarshal([]byte(body), &records))
	return records
}

func recordURIs(records []record) string {
	uris := make([]string, len(records))
	for i, r := range records {
		uris[i] = r.URI
	}
	return strings.Join(uris, " ")
}

// TestSelectRemoteManifest fetches a manifest over HTTP and filters it.
func TestSelectRemoteManifest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	harness := NewTestHarness(t)
	defer harness.Cleanup()

	harness.StartHTTPServer()
	url := harness.AddPlaylist(testMaster, "master.m3u8")

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"all", nil, "video/fhd.m3u8 video/hd.m3u8 video/uhd.m3u8 video/fhd-iframe.m3u8"},
		{"atmos sorted", []string{"--audio-group", "atmos", "--sort-by-bandwidth"}, "video/uhd.m3u8 video/fhd.m3u8"},
		{"stereo", []string{"--audio-channels", "2"}, "video/hd.m3u8"},
		{"budget", []string{"--max-bandwidth", "5000000", "--exclude-iframes"}, "video/fhd.m3u8 video/hd.m3u8"},
		{"best", []string{"--best", "--max-bandwidth", "7000000"}, "video/fhd.m3u8"},
		{"none", []string{"--resolution", "640x360"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			args := append([]string{"--uri", url, "--format", "json"}, tt.args...)
			res := harness.Run(args...)

			is.Equal(res.ExitCode, 0) // stderr in res.Stderr
			is.Equal(recordURIs(decode(is, res.Stdout)), tt.expected)
		})
	}
}

// TestSelectAbsoluteURIs checks that relative URIs are resolved against the
// manifest URL.
func TestSelectAbsoluteURIs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	harness := NewTestHarness(t)
	defer harness.Cleanup()

	harness.StartHTTPServer()
	url := harness.AddPlaylist(testMaster, "master.m3u8")

	is := is.New(t)
	res := harness.Run(url, "--absolute-uris", "--audio-group", "aac", "--format", "json")
	is.Equal(res.ExitCode, 0)

	records := decode(is, res.Stdout)
	is.Equal(len(records), 1)
	is.Equal(records[0].URI, harness.URL("video/hd.m3u8"))
}

// TestSelectFailures checks exit codes for unreachable and malformed input.
func TestSelectFailures(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	harness := NewTestHarness(t)
	defer harness.Cleanup()

	harness.StartHTTPServer()
	broken := harness.AddPlaylist("#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1000\n", "broken.m3u8")

	is := is.New(t)

	res := harness.Run(harness.URL("missing.m3u8"))
	is.Equal(res.ExitCode, 1) // missing manifest

	res = harness.Run(broken)
	is.Equal(res.ExitCode, 2) // broken manifest
	is.True(strings.Contains(res.Stderr, "missing URI"))
	is.Equal(res.Stdout, "")
}

// TestServe runs the HTTP mode and queries its endpoints.
func TestServe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	harness := NewTestHarness(t)
	defer harness.Cleanup()

	harness.StartHTTPServer()
	url := harness.AddPlaylist(testMaster, "master.m3u8")

	harness.StartServe(url, "--exclude-iframes")
	is := is.New(t)

	status, body := harness.Fetch("/health")
	is.Equal(status, http.StatusOK)
	is.True(strings.Contains(body, `"variants":4`))

	status, body = harness.Fetch("/variants?sort-by-bandwidth")
	is.Equal(status, http.StatusOK)
	is.Equal(recordURIs(decode(is, body)), "video/uhd.m3u8 video/fhd.m3u8 video/hd.m3u8")

	status, body = harness.Fetch("/variants?best&max-bandwidth=6000000")
	is.Equal(status, http.StatusOK)
	is.Equal(recordURIs(decode(is, body)), "video/fhd.m3u8")

	status, body = harness.Fetch("/playlist.m3u8?audio-group=atmos&max-bandwidth=6000000")
	is.Equal(status, http.StatusOK)
	is.True(strings.HasPrefix(body, "#EXTM3U"))
	is.True(strings.Contains(body, "video/fhd.m3u8"))
	is.True(!strings.Contains(body, "video/uhd.m3u8"))

	status, _ = harness.Fetch("/variants?max-bandwidth=lots")
	is.Equal(status, http.StatusBadRequest)
}
