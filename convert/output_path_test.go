package convert

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"h2w/config"
	"h2w/state"
)

func setupTestEnvForOutputPath(t *testing.T, noDirs bool, transliterate bool) *state.LocalEnv {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Document.FileNameTransliterate = transliterate

	return &state.LocalEnv{
		Log:    logger,
		Cfg:    cfg,
		NoDirs: noDirs,
	}
}

func TestBuildOutputPath(t *testing.T) {
	tests := []struct {
		name          string
		src           string
		outName       string
		noDirs        bool
		transliterate bool
		expected      string
	}{
		{"single file", "page.html", "", false, false, filepath.Join("/output", "page.docx")},
		{"no dirs", "site/docs/page.html", "", true, false, filepath.Join("/output", "page.docx")},
		{"with dirs", "site/docs/page.html", "", false, false, filepath.Join("/output", "site", "docs", "page.docx")},
		{"double extension", "page.en.htm", "", false, false, filepath.Join("/output", "page.en.docx")},
		{"transliterate", "Автор/Книга.html", "", false, true, filepath.Join("/output", "avtor", "kniga.docx")},
		{"dot segment", "./page.html", "", false, false, filepath.Join("/output", "page.docx")},
		{"empty", "", "", false, false, filepath.Join("/output", "document.docx")},
		{"named", "site/page.html", "Title: Part 1", false, false, filepath.Join("/output", "site", config.CleanFileName("Title: Part 1")+".docx")},
		{"blank name", "page.html", "  ", false, false, filepath.Join("/output", "page.docx")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, tt.noDirs, tt.transliterate)
			if result := buildOutputPath(tt.src, "/output", tt.outName, env); result != tt.expected {
				t.Errorf("buildOutputPath() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestMakeDefaultFileName(t *testing.T) {
	tests := []struct {
		name          string
		src           string
		transliterate bool
		expected      string
	}{
		{"simple", "page.html", false, "page.docx"},
		{"with path", "path/to/page.html", false, "page.docx"},
		{"no extension", "README", false, "README.docx"},
		{"transliterate", "Книга.html", true, "kniga.docx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, true, tt.transliterate)
			if result := makeDefaultFileName(tt.src, env); result != tt.expected {
				t.Errorf("makeDefaultFileName() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestSplitPathSegments(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected []string
	}{
		{"simple path", filepath.Join("site", "page"), []string{"site", "page"}},
		{"single segment", "page", []string{"page"}},
		{"with trailing slash", filepath.Join("site", "page") + string(filepath.Separator), []string{"site", "page"}},
		{"three levels", filepath.Join("a", "b", "c"), []string{"a", "b", "c"}},
		{"empty path", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitPathSegments(tt.path)
			if len(result) != len(tt.expected) {
				t.Fatalf("splitPathSegments() = %q, want %q", result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitPathSegments()[%d] = %q, want %q", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestCleanPathSegment(t *testing.T) {
	tests := []struct {
		name          string
		segment       string
		transliterate bool
		expected      string
	}{
		{"simple segment", "site", false, "site"},
		{"with spaces", "My Page", false, "My Page"},
		{"transliterate cyrillic", "Автор", true, "avtor"},
		{"leading dots", "..hidden", false, "hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, true, tt.transliterate)
			if result := cleanPathSegment(tt.segment, env); result != tt.expected {
				t.Errorf("cleanPathSegment() = %q, want %q", result, tt.expected)
			}
		})
	}
}
