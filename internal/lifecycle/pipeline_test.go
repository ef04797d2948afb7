package lifecycle

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	pkg "github.com/peteski22/consent-gate/pkg/contract/consent"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func emit(s string) ActionFunc {
	return func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func TestRenderOrdersActionsByPriority(t *testing.T) {
	t.Parallel()

	p := NewPipeline(hclog.NewNullLogger())
	require.NoError(t, p.AddAction(pkg.StageEarlyHead, "c", 10, emit("c")))
	require.NoError(t, p.AddAction(pkg.StageEarlyHead, "a", -9999, emit("a")))
	require.NoError(t, p.AddAction(pkg.StageEarlyHead, "b1", 0, emit("b1")))
	require.NoError(t, p.AddAction(pkg.StageEarlyHead, "b2", 0, emit("b2")))
	require.NoError(t, p.AddAction(pkg.StageFooter, "f", 0, emit("f")))

	out, err := p.Render(context.Background(), pkg.StageEarlyHead)
	require.NoError(t, err)
	assert.Equal(t, "ab1b2c", out)

	out, err = p.Render(context.Background(), pkg.StageLateHead)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRenderSkipsFailingActions(t *testing.T) {
	t.Parallel()

	p := NewPipeline(hclog.NewNullLogger())
	require.NoError(t, p.AddAction(pkg.StageFooter, "ok", 0, emit("ok;")))
	require.NoError(t, p.AddAction(pkg.StageFooter, "broken", 1, func(_ context.Context, w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return errors.New("boom")
	}))
	require.NoError(t, p.AddAction(pkg.StageFooter, "panics", 2, func(context.Context, io.Writer) error {
		panic("nope")
	}))
	require.NoError(t, p.AddAction(pkg.StageFooter, "after", 3, emit("after")))

	out, err := p.Render(context.Background(), pkg.StageFooter)
	require.NoError(t, err)
	assert.Equal(t, "ok;after", out)
}

func TestRegistrationErrors(t *testing.T) {
	t.Parallel()

	p := NewPipeline(hclog.NewNullLogger())

	err := p.AddAction("body", "x", 0, emit(""))
	require.ErrorIs(t, err, ErrUnknownStage)

	err = p.AddAction(pkg.StageFooter, "", 0, emit(""))
	require.ErrorIs(t, err, ErrMissingName)

	_, err = p.AddFilter("body", "x", 0, nil)
	require.ErrorIs(t, err, ErrUnknownStage)

	require.NoError(t, p.EnqueueScript(pkg.StageFooter, "h", "/h.js", nil))
	err = p.EnqueueScript(pkg.StageEarlyHead, "h", "/other.js", nil)
	require.ErrorIs(t, err, ErrDuplicateScript)

	_, err = p.Render(context.Background(), "body")
	require.ErrorIs(t, err, ErrUnknownStage)
}

func TestProbe(t *testing.T) {
	t.Parallel()

	p := NewPipeline(hclog.NewNullLogger())
	require.NoError(t, p.AddAction(pkg.StageFooter, "tracking", 0, emit("")))
	require.NoError(t, p.EnqueueScript(pkg.StageFooter, "share", "/share.js", nil))

	var probe pkg.Probe = p
	assert.True(t, probe.HasAction(pkg.StageFooter, "tracking"))
	assert.False(t, probe.HasAction(pkg.StageEarlyHead, "tracking"))
	assert.True(t, probe.HasScript("share"))
	assert.False(t, probe.HasScript("tracking"))
}

func TestFiltersRunAfterActionsAndScripts(t *testing.T) {
	t.Parallel()

	p := NewPipeline(hclog.NewNullLogger())
	require.NoError(t, p.AddAction(pkg.StageFooter, "a", 0, emit("<script>x</script>\n")))
	require.NoError(t, p.EnqueueScript(pkg.StageFooter, "share", "/share.js?a=1&b=2", pkg.Attributes{{Key: "async"}}))

	added, err := p.AddFilter(pkg.StageFooter, "upper", 20, func(_ context.Context, _ pkg.Stage, buf string) string {
		return strings.ToUpper(buf)
	})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = p.AddFilter(pkg.StageFooter, "marker", 10, func(_ context.Context, _ pkg.Stage, buf string) string {
		return buf + "done"
	})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = p.AddFilter(pkg.StageFooter, "marker", 10, func(_ context.Context, _ pkg.Stage, buf string) string {
		return buf + "twice"
	})
	require.NoError(t, err)
	assert.False(t, added)
	assert.True(t, p.HasFilter(pkg.StageFooter, "marker"))

	out, err := p.Render(context.Background(), pkg.StageFooter)
	require.NoError(t, err)
	assert.Equal(t,
		"<SCRIPT>X</SCRIPT>\n<SCRIPT SRC=\"/SHARE.JS?A=1&AMP;B=2\" ID=\"SHARE-JS\" ASYNC></SCRIPT>\nDONE",
		out,
	)
}

func TestScriptFilters(t *testing.T) {
	t.Parallel()

	p := NewPipeline(hclog.NewNullLogger())
	require.NoError(t, p.EnqueueScript(pkg.StageFooter, "share", "/share.js", nil))
	require.NoError(t, p.EnqueueScript(pkg.StageFooter, "other", "/other.js", pkg.Attributes{{Key: "id", Val: "custom"}}))

	p.AddScriptFilter(func(handle, _ string, attrs pkg.Attributes) pkg.Attributes {
		if handle != "share" {
			return attrs
		}
		return attrs.Set(pkg.AttrType, pkg.InertType).Set(pkg.AttrConsent, "marketing")
	})

	out, err := p.Render(context.Background(), pkg.StageFooter)
	require.NoError(t, err)
	assert.Equal(t,
		`<script src="/share.js" id="share-js" type="text/plain" data-cookieconsent="marketing"></script>`+"\n"+
			`<script src="/other.js" id="custom"></script>`+"\n",
		out,
	)
}

func TestFilterPanicLeavesOutput(t *testing.T) {
	t.Parallel()

	p := NewPipeline(hclog.NewNullLogger())
	require.NoError(t, p.AddAction(pkg.StageLateHead, "a", 0, emit("keep")))
	_, err := p.AddFilter(pkg.StageLateHead, "bad", 0, func(context.Context, pkg.Stage, string) string {
		panic("bad filter")
	})
	require.NoError(t, err)

	out, err := p.Render(context.Background(), pkg.StageLateHead)
	require.NoError(t, err)
	assert.Equal(t, "keep", out)
}
