package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rootsploit/arecon/internal/command"
	"github.com/rootsploit/arecon/internal/config"
	"github.com/rootsploit/arecon/internal/logging"
	"github.com/rootsploit/arecon/internal/tools"
)

func newPipeline(t *testing.T, res Resolver, inv Invoker, mutate func(*config.Config)) (*Pipeline, *config.Config, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "recon_output")
	if mutate != nil {
		mutate(cfg)
	}
	b, err := command.NewBuilder(cfg)
	require.NoError(t, err)
	var buf bytes.Buffer
	progress := NewProgress(&buf)
	if inv == nil {
		inv = NewToolRunner(cfg, progress, logging.Discard())
	}
	return NewPipeline(cfg, res, b, inv, progress, logging.Discard()), cfg, &buf
}

func outcomeStatuses(r *TargetResult) map[string][]Status {
	m := map[string][]Status{}
	for _, o := range r.Outcomes {
		m[o.Tool] = append(m[o.Tool], o.Status)
	}
	return m
}

func TestPipelineFullRoster(t *testing.T) {
	inv := &recordingInvoker{}
	p, _, buf := newPipeline(t, allInstalled(), inv, func(c *config.Config) { c.Aggressive = true })

	res := p.Run(context.Background(), "a.test")
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"nmap", "nikto", "whatweb", "gobuster", "testssl.sh", "curl", "curl"}, inv.binaries())
	assert.ElementsMatch(t, []string{
		"portscan.nmap", "webvuln.txt", "fingerprint.txt", "dirdiscovery.txt",
		"tlsaudit.txt", "headers_http.txt", "headers_https.txt",
	}, listFiles(res.Dir))
	assert.Contains(t, buf.String(), "finished: a.test → "+res.Dir)
	assert.Equal(t, Counts{OK: 7}, res.Counts())
}

func TestPipelineNonAggressiveSkipsTLS(t *testing.T) {
	inv := &recordingInvoker{}
	p, _, _ := newPipeline(t, allInstalled(), inv, nil)

	res := p.Run(context.Background(), "a.test")
	assert.NotContains(t, inv.binaries(), "testssl.sh")
	_, hasTLS := outcomeStatuses(res)[tools.TLSAudit]
	assert.False(t, hasTLS)
}

func TestPipelineOnlyFilter(t *testing.T) {
	inv := &recordingInvoker{}
	p, _, buf := newPipeline(t, allInstalled(), inv, func(c *config.Config) {
		c.Aggressive = true
		c.Only = []string{"nmap", "whatweb"}
	})

	res := p.Run(context.Background(), "a.test")
	st := outcomeStatuses(res)
	assert.Equal(t, []Status{StatusOK}, st[tools.PortScan])
	assert.Equal(t, []Status{StatusExcluded}, st[tools.WebVuln])
	assert.Equal(t, []Status{StatusOK}, st[tools.Fingerprint])
	assert.Equal(t, []Status{StatusExcluded}, st[tools.DirDiscovery])
	assert.Equal(t, []Status{StatusExcluded}, st[tools.TLSAudit])
	assert.Equal(t, []Status{StatusOK, StatusOK}, st[tools.Headers])

	files := listFiles(res.Dir)
	assert.NotContains(t, files, "dirdiscovery.txt")
	assert.NotContains(t, files, "tlsaudit.txt")
	assert.Contains(t, buf.String(), "skipping dirdiscovery (excluded by filter)")
}

func TestPipelineExcludedToolIsNeverResolved(t *testing.T) {
	res := &countingResolver{fakeResolver: allInstalled()}
	p, _, _ := newPipeline(t, res, &recordingInvoker{}, func(c *config.Config) { c.Only = []string{"portscan"} })

	p.Run(context.Background(), "a.test")
	assert.Equal(t, []string{tools.PortScan, tools.Headers}, res.asked)
}

type countingResolver struct {
	*fakeResolver
	asked []string
}

func (c *countingResolver) Resolve(t tools.Tool) (tools.Resolution, bool) {
	c.asked = append(c.asked, t.Name)
	return c.fakeResolver.Resolve(t)
}

func TestPipelineAbsentToolDoesNotBlockOthers(t *testing.T) {
	inv := &recordingInvoker{}
	p, _, buf := newPipeline(t, installed("nmap", "whatweb", "ffuf", "curl"), inv, nil)

	res := p.Run(context.Background(), "a.test")
	st := outcomeStatuses(res)
	assert.Equal(t, []Status{StatusAbsent}, st[tools.WebVuln])
	assert.Equal(t, []Status{StatusOK}, st[tools.DirDiscovery])
	assert.Contains(t, inv.binaries(), "ffuf")
	assert.ElementsMatch(t, []string{
		"portscan.nmap", "fingerprint.txt", "dirdiscovery.txt", "headers_http.txt", "headers_https.txt",
	}, listFiles(res.Dir))
	assert.Contains(t, buf.String(), "skipping webvuln (not installed)")
	assert.Equal(t, 1, res.Counts().Absent)
}

func TestPipelineFailuresAreIndependent(t *testing.T) {
	inv := &recordingInvoker{fail: map[string]bool{tools.PortScan: true, tools.DirDiscovery: true}}
	p, _, _ := newPipeline(t, allInstalled(), inv, nil)

	res := p.Run(context.Background(), "a.test")
	assert.Len(t, inv.calls, 6)
	c := res.Counts()
	assert.Equal(t, 1, c.Failed)
	assert.Equal(t, 1, c.BestEffortFailed)
	assert.Equal(t, 4, c.OK)
}

func TestPipelineTLSFallsBackToSslscan(t *testing.T) {
	inv := &recordingInvoker{}
	p, _, _ := newPipeline(t, installed("sslscan"), inv, func(c *config.Config) { c.Aggressive = true })

	p.Run(context.Background(), "a.test")
	require.Len(t, inv.calls, 1)
	assert.Equal(t, "sslscan", inv.calls[0].Binary)
	assert.Equal(t, inv.calls[0].Artifact, inv.calls[0].Stdout)
}

func TestPipelineDryRunCreatesNothing(t *testing.T) {
	for _, res := range []Resolver{allInstalled(), installed()} {
		p, cfg, buf := newPipeline(t, res, nil, func(c *config.Config) { c.DryRun = true; c.Aggressive = true })

		result := p.Run(context.Background(), "a.test")
		require.NoError(t, result.Err)
		assert.NoDirExists(t, cfg.OutputDir)
		for _, bin := range []string{"nmap ", "nikto ", "whatweb ", "gobuster ", "testssl.sh ", "curl "} {
			assert.Contains(t, buf.String(), bin)
		}
		for _, o := range result.Outcomes {
			assert.True(t, o.DryRun, o.Tool)
		}
	}
}

func TestPipelineIsIdempotent(t *testing.T) {
	inv := &recordingInvoker{}
	p, _, _ := newPipeline(t, allInstalled(), inv, nil)

	first := p.Run(context.Background(), "a.test")
	before := listFiles(first.Dir)
	second := p.Run(context.Background(), "a.test")
	require.NoError(t, second.Err)
	assert.Equal(t, first.Dir, second.Dir)
	assert.Equal(t, before, listFiles(second.Dir))
}

func TestPipelineSanitizesDirectory(t *testing.T) {
	p, cfg, _ := newPipeline(t, installed(), &recordingInvoker{}, nil)

	res := p.Run(context.Background(), "10.0.0.0/24")
	assert.Equal(t, filepath.Join(cfg.OutputDir, "10.0.0.0_24"), res.Dir)
	assert.DirExists(t, res.Dir)
}

func TestPipelineMkdirFailureAbortsTargetOnly(t *testing.T) {
	inv := &recordingInvoker{}
	p, cfg, buf := newPipeline(t, allInstalled(), inv, nil)
	require.NoError(t, os.WriteFile(cfg.OutputDir, []byte("not a dir"), 0o644))

	res := p.Run(context.Background(), "a.test")
	assert.Error(t, res.Err)
	assert.Empty(t, res.Outcomes)
	assert.Empty(t, inv.calls)
	assert.Contains(t, buf.String(), "aborted")
}

func TestPipelineRefusesOptionLikeTarget(t *testing.T) {
	inv := &recordingInvoker{}
	p, cfg, buf := newPipeline(t, allInstalled(), inv, nil)

	res := p.Run(context.Background(), "-iL/etc/passwd")
	assert.ErrorIs(t, res.Err, command.ErrOptionTarget)
	assert.Empty(t, inv.calls)
	assert.NoDirExists(t, cfg.OutputDir)
	assert.Contains(t, buf.String(), "aborted")
}

func TestPipelineStopsOnCancelledContext(t *testing.T) {
	inv := &recordingInvoker{}
	p, _, _ := newPipeline(t, allInstalled(), inv, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := p.Run(ctx, "a.test")
	assert.Empty(t, inv.calls)
	assert.Empty(t, res.Outcomes)
}
