package transpile

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axisframe/axis/internal/cache"
	"github.com/axisframe/axis/internal/errors"
	"github.com/axisframe/axis/internal/logging"
)

func newTestPipeline(mode Mode) (*Pipeline, *errors.Collector) {
	collector := errors.NewCollector()
	p := NewPipeline(PassthroughCompiler{}, cache.New[Result](100), collector, logging.Discard(), mode)
	return p, collector
}

// recordingLogger captures messages so tests can assert on emitted
// diagnostics.
type recordingLogger struct {
	mutex    sync.Mutex
	messages []string
}

func (l *recordingLogger) record(msg string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) recorded() []string {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return append([]string(nil), l.messages...)
}

func (l *recordingLogger) Debug(_ context.Context, msg string, _ ...interface{}) { l.record(msg) }
func (l *recordingLogger) Info(_ context.Context, msg string, _ ...interface{})  { l.record(msg) }
func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...interface{})  { l.record(msg) }
func (l *recordingLogger) Error(_ context.Context, _ error, msg string, _ ...interface{}) {
	l.record(msg)
}
func (l *recordingLogger) With(_ ...interface{}) logging.Logger  { return l }
func (l *recordingLogger) WithComponent(_ string) logging.Logger { return l }

func request(path, source string) Request {
	return Request{
		Path:   path,
		File:   "/project" + path,
		Source: []byte(source),
		Token:  cache.ContentToken([]byte(source)),
		Mode:   ModeDevelopment,
	}
}

func TestPipeline_ImportRewrite(t *testing.T) {
	p, _ := newTestPipeline(ModeDevelopment)

	src := `import Button from "./Button";
import merge from "lodash/merge";
import "./theme.css";
export const x = 1;
`
	res, err := p.Transpile(context.Background(), request("/components/Card.ts", src))
	require.NoError(t, err)
	require.False(t, res.Failed())

	code := string(res.Code)
	assert.Contains(t, code, `"/components/Button.js"`)
	assert.Contains(t, code, `"/node_modules/lodash/merge.js"`)
	assert.NotContains(t, code, "theme.css")
	assert.NotContains(t, code, `"./Button"`)
	assert.Equal(t, []string{"/components/Button.js", "/node_modules/lodash/merge.js"}, res.Metadata.Imports)
}

func TestPipeline_StylesheetDropIsLogged(t *testing.T) {
	logger := &recordingLogger{}
	p := NewPipeline(PassthroughCompiler{}, cache.New[Result](100), errors.NewCollector(), logger, ModeDevelopment)

	src := `import "./theme.css";
export const x = 1;
`
	res, err := p.Transpile(context.Background(), request("/components/Card.ts", src))
	require.NoError(t, err)
	require.False(t, res.Failed())
	assert.NotContains(t, string(res.Code), "theme.css")
	assert.Contains(t, logger.recorded(), "dropping stylesheet import")
}

func TestPipeline_EndToEnd(t *testing.T) {
	// A component importing a sibling and rendering markup: every
	// emitted specifier is absolute and the runtime import is injected.
	p, _ := newTestPipeline(ModeDevelopment)

	src := `import Icon from "./Icon";

export default function Badge() {
  return <span><Icon/></span>;
}
`
	res, err := p.Transpile(context.Background(), request("/components/Badge.tsx", src))
	require.NoError(t, err)
	require.False(t, res.Failed())
	assert.True(t, res.Metadata.HasMarkup)

	code := string(res.Code)
	assert.True(t, strings.HasPrefix(code, `import { jsx, jsxs, Fragment } from "/axis/runtime.js";`))
	assert.Contains(t, code, `"/components/Icon.js"`)
	assert.NotContains(t, code, `"./Icon"`)
}

func TestPipeline_MarkupSignals(t *testing.T) {
	p, _ := newTestPipeline(ModeDevelopment)

	t.Run("tsx extension alone is enough", func(t *testing.T) {
		res, err := p.Transpile(context.Background(), request("/components/Empty.tsx", "export const a = 1;\n"))
		require.NoError(t, err)
		assert.True(t, res.Metadata.HasMarkup)
	})

	t.Run("plain ts without markup gets no preamble", func(t *testing.T) {
		res, err := p.Transpile(context.Background(), request("/lib/util.ts", "export const a = 1;\n"))
		require.NoError(t, err)
		assert.False(t, res.Metadata.HasMarkup)
		assert.NotContains(t, string(res.Code), "/axis/runtime.js")
	})

	t.Run("detected markup in ts triggers transform", func(t *testing.T) {
		res, err := p.Transpile(context.Background(), request("/lib/render.ts", "export const el = <div/>;\n"))
		require.NoError(t, err)
		assert.True(t, res.Metadata.HasMarkup)
	})
}

func TestPipeline_Directives(t *testing.T) {
	t.Run("use client stripped", func(t *testing.T) {
		p, _ := newTestPipeline(ModeDevelopment)
		res, err := p.Transpile(context.Background(), request("/components/Widget.ts", "\"use client\";\nexport const a = 1;\n"))
		require.NoError(t, err)
		require.False(t, res.Failed())
		assert.True(t, res.Metadata.HasDirectives)
		assert.Equal(t, []string{DirectiveClient}, res.Metadata.Directives)
		assert.NotContains(t, string(res.Code), "use client")
	})

	t.Run("use server is unservable", func(t *testing.T) {
		p, collector := newTestPipeline(ModeDevelopment)
		res, err := p.Transpile(context.Background(), request("/lib/actions.ts", "\"use server\";\nexport const a = 1;\n"))
		require.NoError(t, err)
		assert.True(t, res.Failed())
		assert.True(t, collector.HasErrors())
		// The fallback module still parses as an ES module and renders
		// the failure.
		assert.Contains(t, string(res.Code), "/axis/runtime.js")
		assert.Contains(t, string(res.Code), "TranspileFailure")
	})

	t.Run("documentation paths exempt from validation", func(t *testing.T) {
		p, _ := newTestPipeline(ModeDevelopment)
		res, err := p.Transpile(context.Background(), request("/app/docs/example.ts", "\"use server\";\nexport const a = 1;\n"))
		require.NoError(t, err)
		assert.False(t, res.Failed())
	})
}

func TestPipeline_ProductionPostprocess(t *testing.T) {
	p, _ := newTestPipeline(ModeProduction)

	src := "export const a = 1;\nconsole.debug(\"trace\");\n\n\n\nexport const b = 2;\n"
	req := request("/lib/util.ts", src)
	req.Mode = ModeProduction

	res, err := p.Transpile(context.Background(), req)
	require.NoError(t, err)
	code := string(res.Code)
	assert.NotContains(t, code, "console.debug")
	assert.NotContains(t, code, "\n\n\n")
	assert.Contains(t, code, "export const b = 2;")
}

func TestPipeline_CacheBehavior(t *testing.T) {
	p, _ := newTestPipeline(ModeDevelopment)
	req := request("/lib/util.ts", "export const a = 1;\n")

	first, err := p.Transpile(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Metadata.CacheHit)

	second, err := p.Transpile(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Metadata.CacheHit)

	// A changed token forces retranspilation.
	changed := request("/lib/util.ts", "export const a = 2;\n")
	third, err := p.Transpile(context.Background(), changed)
	require.NoError(t, err)
	assert.False(t, third.Metadata.CacheHit)
	assert.Contains(t, string(third.Code), "a = 2")
}

func TestPipeline_Invalidate(t *testing.T) {
	p, _ := newTestPipeline(ModeDevelopment)
	req := request("/lib/util.ts", "export const a = 1;\n")

	_, err := p.Transpile(context.Background(), req)
	require.NoError(t, err)

	p.Invalidate("/lib/util.ts")

	res, err := p.Transpile(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Metadata.CacheHit)
}

func TestPipeline_ConcurrentSameKey(t *testing.T) {
	p, _ := newTestPipeline(ModeDevelopment)
	req := request("/components/Busy.tsx", "export default function Busy() { return <div/>; }\n")

	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res, err := p.Transpile(context.Background(), req)
			assert.NoError(t, err)
			results[n] = res
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		assert.Equal(t, string(results[0].Code), string(res.Code))
	}
}

func TestStripDirectives(t *testing.T) {
	t.Run("multiple directives with comments", func(t *testing.T) {
		src := []byte("// entry\n\"use client\";\n'use server'\nconst a = 1;\n")
		rest, directives := stripDirectives(src)
		assert.Equal(t, []string{DirectiveClient, DirectiveServer}, directives)
		assert.NotContains(t, string(rest), "use client")
		assert.Contains(t, string(rest), "const a = 1;")
	})

	t.Run("non-directive string untouched", func(t *testing.T) {
		src := []byte("\"hello\";\nconst a = 1;\n")
		rest, directives := stripDirectives(src)
		assert.Empty(t, directives)
		assert.Equal(t, src, rest)
	})
}

func TestRequestKey(t *testing.T) {
	a := request("/components/A.tsx", "one")
	b := request("/components/A.tsx", "two")
	assert.NotEqual(t, a.Key(), b.Key(), "different tokens must not collide")
	assert.NotEqual(t, a.Hash(), b.Hash())
}
