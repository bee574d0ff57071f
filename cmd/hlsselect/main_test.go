package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/agleyzer/hlsselect/internal/parser"
	"github.com/agleyzer/hlsselect/internal/selector"
)

const testMaster = `#EXTM3U
#EXT-X-VERSION:6
#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="atmos",NAME="Atmos",CHANNELS="16/JOC",URI="audio/atmos.m3u8"
#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="aac",NAME="Stereo",CHANNELS="2",URI="audio/aac.m3u8"
#EXT-X-STREAM-INF:BANDWIDTH=5000000,RESOLUTION=1920x1080,AUDIO="atmos"
fhd.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=3000000,RESOLUTION=1280x720,AUDIO="aac"
hd.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=8000000,RESOLUTION=3840x2160,AUDIO="atmos"
uhd.m3u8
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	is.New(t).NoErr(os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func decodeURIs(is *is.I, out string) []string {
	var records []struct {
		URI string `json:"uri"`
	}
	is.NoErr(json.Unmarshal([]byte(out), &records))
	uris := make([]string, len(records))
	for i, r := range records {
		uris[i] = r.URI
	}
	return uris
}

func TestSelectJSON(t *testing.T) {
	is := is.New(t)
	path := writeFile(t, "master.m3u8", testMaster)

	code, out, _ := runCLI(path, "--audio-group", "atmos", "--sort-by-bandwidth", "--format", "json")
	is.Equal(code, exitOK)
	is.Equal(decodeURIs(is, out), []string{"uhd.m3u8", "fhd.m3u8"})
}

func TestSelectCommandAndURIFlag(t *testing.T) {
	is := is.New(t)
	path := writeFile(t, "master.m3u8", testMaster)

	code, out, _ := runCLI("select", "--uri", path, "--max-bandwidth", "4000000", "-f", "json")
	is.Equal(code, exitOK)
	is.Equal(decodeURIs(is, out), []string{"hd.m3u8"})
}

func TestSelectAudioChannels(t *testing.T) {
	is := is.New(t)
	path := writeFile(t, "master.m3u8", testMaster)

	code, out, _ := runCLI(path, "--audio-channels", "16", "--max-bandwidth", "6000000", "-f", "json")
	is.Equal(code, exitOK)
	is.Equal(decodeURIs(is, out), []string{"fhd.m3u8"})
}

func TestSelectBest(t *testing.T) {
	is := is.New(t)
	path := writeFile(t, "master.m3u8", testMaster)

	code, out, _ := runCLI(path, "--best", "--resolution", "1920x1080", "-f", "json")
	is.Equal(code, exitOK)
	is.Equal(decodeURIs(is, out), []string{"fhd.m3u8"})

	code, out, _ = runCLI(path, "--best", "-f", "json")
	is.Equal(code, exitOK)
	is.Equal(decodeURIs(is, out), []string{"uhd.m3u8"})
}

func TestSelectVariants(t *testing.T) {
	is := is.New(t)

	pl, err := parser.Parse(testMaster)
	is.NoErr(err)

	atmos := "atmos"
	all := selectVariants(pl, selector.Options{AudioGroup: &atmos}, false)
	is.Equal(len(all), 2)
	is.Equal(all[0].URI, "fhd.m3u8") // source order without sorting

	best := selectVariants(pl, selector.Options{AudioGroup: &atmos}, true)
	is.Equal(len(best), 1)
	is.Equal(best[0].URI, "uhd.m3u8")

	missing := "missing"
	is.Equal(len(selectVariants(pl, selector.Options{AudioGroup: &missing}, true)), 0)
}

func TestSelectBestNoMatch(t *testing.T) {
	is := is.New(t)
	path := writeFile(t, "master.m3u8", testMaster)

	code, out, _ := runCLI(path, "--best", "--resolution", "640x360", "-f", "json")
	is.Equal(code, exitOK)
	is.Equal(out, "[]\n")
}

func TestSelectNoMatch(t *testing.T) {
	is := is.New(t)
	path := writeFile(t, "master.m3u8", testMaster)

	code, out, _ := runCLI(path, "--audio-group", "missing", "-f", "json")
	is.Equal(code, exitOK)
	is.Equal(out, "[]\n")
}

func TestSelectText(t *testing.T) {
	is := is.New(t)
	path := writeFile(t, "master.m3u8", testMaster)

	code, out, _ := runCLI(path)
	is.Equal(code, exitOK)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	is.Equal(len(lines), 3)
	is.True(strings.HasPrefix(lines[0], "5000000"))
	is.True(strings.Contains(lines[0], "atmos(16ch)"))
	is.True(!strings.Contains(out, "\x1b[")) // no color when not a terminal
}

func TestSelectM3U8(t *testing.T) {
	is := is.New(t)
	path := writeFile(t, "master.m3u8", testMaster)

	code, out, _ := runCLI(path, "--audio-group", "aac", "-f", "m3u8")
	is.Equal(code, exitOK)

	pl, err := parser.Parse(out)
	is.NoErr(err)
	is.Equal(len(pl.Variants), 1)
	is.Equal(pl.Variants[0].URI, "hd.m3u8")
	is.Equal(len(pl.Group("aac")), 1)
}

func TestSelectAbsoluteURIs(t *testing.T) {
	is := is.New(t)
	path := writeFile(t, "master.m3u8", testMaster)

	code, out, _ := runCLI(path, "--absolute-uris", "--audio-group", "aac", "-f", "json")
	is.Equal(code, exitOK)
	is.Equal(decodeURIs(is, out), []string{filepath.Join(filepath.Dir(path), "hd.m3u8")})
}

func TestSelectProfile(t *testing.T) {
	is := is.New(t)
	path := writeFile(t, "master.m3u8", testMaster)
	cfg := writeFile(t, "profiles.yml", "profiles:\n  tv:\n    audio-group: atmos\n    sort-by-bandwidth: true\n")

	code, out, _ := runCLI(path, "--config", cfg, "--profile", "tv", "-f", "json")
	is.Equal(code, exitOK)
	is.Equal(decodeURIs(is, out), []string{"uhd.m3u8", "fhd.m3u8"})

	// explicit flags win over the profile
	code, out, _ = runCLI(path, "--config", cfg, "--profile", "tv", "--audio-group", "aac", "-f", "json")
	is.Equal(code, exitOK)
	is.Equal(decodeURIs(is, out), []string{"hd.m3u8"})

	code, _, _ = runCLI(path, "--config", cfg, "--profile", "phone")
	is.Equal(code, exitError)

	code, _, _ = runCLI(path, "--profile", "tv")
	is.Equal(code, exitError)
}

func TestVersion(t *testing.T) {
	is := is.New(t)

	code, out, _ := runCLI("--version")
	is.Equal(code, exitOK)
	is.Equal(out, "hlsselect v"+version+"\n")
}

func TestErrors(t *testing.T) {
	path := writeFile(t, "master.m3u8", testMaster)
	broken := writeFile(t, "broken.m3u8", "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1000\n")
	empty := writeFile(t, "empty.m3u8", "#EXTM3U\n")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no manifest", []string{}, exitError},
		{"missing file", []string{filepath.Join(t.TempDir(), "nope.m3u8")}, exitError},
		{"parse error", []string{broken}, exitUsage},
		{"empty playlist", []string{empty}, exitError},
		{"bad resolution", []string{path, "--resolution", "big"}, exitError},
		{"bad channels", []string{path, "--audio-channels", "many"}, exitUsage},
		{"unknown format", []string{path, "--format", "xml"}, exitUsage},
		{"unknown flag", []string{path, "--bogus"}, exitUsage},
		{"conflicting manifests", []string{path, "--uri", broken}, exitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			code, out, _ := runCLI(tt.args...)
			is.Equal(code, tt.code)
			is.Equal(out, "")
		})
	}
}

func TestAbsolutize(t *testing.T) {
	is := is.New(t)

	pl, err := parser.Parse(testMaster)
	is.NoErr(err)

	abs, err := absolutize(pl, "https://cdn.example.com/show/master.m3u8")
	is.NoErr(err)

	is.Equal(abs.Variants[0].URI, "https://cdn.example.com/show/fhd.m3u8")
	is.Equal(abs.Group("atmos")[0].URI, "https://cdn.example.com/show/audio/atmos.m3u8")
	is.Equal(abs.Version, 6)

	// the source playlist is untouched
	is.Equal(pl.Variants[0].URI, "fhd.m3u8")
	is.Equal(pl.Group("atmos")[0].URI, "audio/atmos.m3u8")
}
