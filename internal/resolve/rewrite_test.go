package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewrite_Relative(t *testing.T) {
	t.Run("sibling import", func(t *testing.T) {
		r := Rewrite("./Button", "/components/Card.tsx")
		assert.Equal(t, "/components/Button.js", r.Resolved)
		assert.Equal(t, AssetJS, r.Asset)
		assert.False(t, r.Dropped)
	})

	t.Run("parent traversal rebases at bucket", func(t *testing.T) {
		// /app/blog + ../components/Foo joins to /app/components/Foo;
		// rebasing anchors at the components bucket, not at app.
		r := Rewrite("../components/Foo", "/app/blog/page")
		assert.Equal(t, "/components/Foo.js", r.Resolved)
	})

	t.Run("source extension lowered", func(t *testing.T) {
		r := Rewrite("./Button.tsx", "/components/Card.tsx")
		assert.Equal(t, "/components/Button.js", r.Resolved)
	})
}

func TestRewrite_Absolute(t *testing.T) {
	t.Run("runtime prefixes pass through", func(t *testing.T) {
		for _, spec := range []string{
			"/axis/runtime.js",
			"/components/Foo.js",
			"/node_modules/lodash/index.js",
			"/__deps/fs.js",
		} {
			r := Rewrite(spec, "/app/page.tsx")
			assert.Equal(t, spec, r.Resolved, spec)
		}
	})

	t.Run("idempotent under repeated application", func(t *testing.T) {
		once := Rewrite("/lib/util.ts", "/app/page.tsx")
		twice := Rewrite(once.Resolved, "/app/page.tsx")
		assert.Equal(t, once.Resolved, twice.Resolved)
	})
}

func TestRewrite_Framework(t *testing.T) {
	tests := map[string]string{
		"@axis":        "/axis/runtime.js",
		"@axis/hooks":  "/axis/hooks.js",
		"@axis/router": "/axis/router.js",
		"@axis/client": "/axis/client.js",
		"@axis/custom": "/axis/custom.js",
	}
	for spec, want := range tests {
		t.Run(spec, func(t *testing.T) {
			r := Rewrite(spec, "/app/page.tsx")
			assert.Equal(t, want, r.Resolved)
			assert.False(t, r.External)
		})
	}
}

func TestRewrite_Packages(t *testing.T) {
	t.Run("scoped submodule", func(t *testing.T) {
		r := Rewrite("@acme/ui/button", "/app/page.tsx")
		assert.Equal(t, "/node_modules/@acme/ui/button.js", r.Resolved)
		assert.Equal(t, "@acme/ui", r.Package)
	})

	t.Run("scoped without submodule gets entry candidate", func(t *testing.T) {
		r := Rewrite("@acme/ui", "/app/page.tsx")
		assert.Equal(t, "/node_modules/@acme/ui/dist/index.js", r.Resolved)
	})

	t.Run("bare package", func(t *testing.T) {
		r := Rewrite("lodash", "/app/page.tsx")
		assert.Equal(t, "/node_modules/lodash/dist/index.js", r.Resolved)
		assert.Equal(t, "lodash", r.Package)
	})

	t.Run("bare submodule", func(t *testing.T) {
		r := Rewrite("lodash/merge", "/app/page.tsx")
		assert.Equal(t, "/node_modules/lodash/merge.js", r.Resolved)
	})

	t.Run("host provided packages are external", func(t *testing.T) {
		for _, spec := range []string{"react", "react-dom", "react/jsx-runtime"} {
			r := Rewrite(spec, "/app/page.tsx")
			assert.True(t, r.External, spec)
			assert.Equal(t, spec, r.Resolved, spec)
		}
	})

	t.Run("degenerate scoped specifier", func(t *testing.T) {
		r := Rewrite("@", "/app/page.tsx")
		assert.NotEmpty(t, r.Resolved)
	})
}

func TestRewrite_Stylesheets(t *testing.T) {
	t.Run("relative stylesheet dropped and tracked", func(t *testing.T) {
		r := Rewrite("./theme.css", "/components/Button.tsx")
		assert.True(t, r.Dropped)
		assert.Equal(t, AssetCSS, r.Asset)
		assert.Equal(t, "/components/theme.css", r.Resolved)
	})

	t.Run("package styles submodule dropped", func(t *testing.T) {
		r := Rewrite("@acme/ui/styles", "/app/page.tsx")
		assert.True(t, r.Dropped)
		assert.Equal(t, AssetCSS, r.Asset)
		assert.Equal(t, "/node_modules/@acme/ui/styles.css", r.Resolved)
		assert.Equal(t, "@acme/ui", r.Package)
	})

	t.Run("preprocessor extensions kept", func(t *testing.T) {
		r := Rewrite("./main.scss", "/src/index.tsx")
		assert.True(t, r.Dropped)
		assert.Equal(t, "/src/main.scss", r.Resolved)
	})
}

func TestInferExtension(t *testing.T) {
	tests := map[string]string{
		"/components/Foo.tsx": "/components/Foo.js",
		"/components/Foo.ts":  "/components/Foo.js",
		"/components/Foo.js":  "/components/Foo.js",
		"/components/Foo":     "/components/Foo.js",
		"/pkg/styles":         "/pkg/styles.css",
		"/pkg/a.css":          "/pkg/a.css",
		"/pkg/data.json":      "/pkg/data.json",
	}
	for in, want := range tests {
		assert.Equal(t, want, InferExtension(in), in)
	}
}
