package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/chunk"
	"github.com/kailas-cloud/docqa/internal/domain/module"
	"github.com/kailas-cloud/docqa/internal/domain/source"
	"github.com/kailas-cloud/docqa/internal/repository/chunkstore"
	answeruc "github.com/kailas-cloud/docqa/internal/usecase/answer"
	ingestuc "github.com/kailas-cloud/docqa/internal/usecase/ingest"
	modulesuc "github.com/kailas-cloud/docqa/internal/usecase/modules"
	"github.com/kailas-cloud/docqa/internal/version"
)

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, filename, _ string) (source.Document, error) {
	kind, err := source.FromFilename(filename)
	if err != nil {
		return source.Document{}, err
	}
	return source.Document{Kind: kind, Pages: []string{"the sky is blue", "grass is green"}}, nil
}

// colorEmbedder scores texts on the words "blue" and "green".
type colorEmbedder struct{}

func (colorEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{
		float32(strings.Count(text, "blue")),
		float32(strings.Count(text, "green")),
		0.1,
	}}, nil
}

type quoteGenerator struct{}

func (quoteGenerator) Generate(_ context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	return domain.GenerationResult{Text: "From the text: " + req.Context}, nil
}

func setupTestServices(t *testing.T) *chunkstore.Store {
	t.Helper()
	logger := zap.NewNop()
	root := t.TempDir()
	store := chunkstore.New(root, logger)

	SetServices(Services{
		Ingest:  ingestuc.New(store, stubExtractor{}, filepath.Join(root, "uploads"), chunk.DefaultParams(), logger),
		Answer:  answeruc.New(store, colorEmbedder{}, quoteGenerator{}, logger),
		Modules: modulesuc.New(store),
	})
	ingestModule, ingestJSON = "", false
	askModule, askJSON = module.Default, false
	t.Cleanup(func() { services = nil })
	return store
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeDoc(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("binary"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionCmd_PrintsBuildInfo(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "docqactl "+version.Version) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestIngestCmd_KeepsSourceFile(t *testing.T) {
	store := setupTestServices(t)
	doc := writeDoc(t, "notes.pdf")

	out, err := run(t, "ingest", doc, "--module", "colors")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !strings.Contains(out, `module "colors": 2 pages, 2 chunks`) {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := os.Stat(doc); err != nil {
		t.Fatalf("source file must survive ingestion: %v", err)
	}
	if ok, _ := store.Exists(context.Background(), "colors"); !ok {
		t.Fatal("module not committed")
	}
}

func TestIngestCmd_JSON(t *testing.T) {
	setupTestServices(t)
	out, err := run(t, "ingest", writeDoc(t, "notes.docx"), "--json")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	var res ingestuc.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.ModuleName != module.Default || len(res.ChunkFilePaths) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestIngestCmd_Errors(t *testing.T) {
	setupTestServices(t)

	if _, err := run(t, "ingest", writeDoc(t, "notes.txt")); !errors.Is(err, domain.ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
	if _, err := run(t, "ingest", filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatal("expected error for a missing file")
	}
	if _, err := run(t, "ingest"); err == nil || !strings.Contains(err.Error(), "accepts 1 arg(s)") {
		t.Fatalf("expected arg count error, got %v", err)
	}
}

func TestAskCmd(t *testing.T) {
	setupTestServices(t)
	if _, err := run(t, "ingest", writeDoc(t, "notes.pdf"), "-m", "colors"); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "ask", "what is green?", "-m", "colors")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(out, "From the text: grass is green") || !strings.Contains(out, "page 2") {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = run(t, "ask", "why blue", "-m", "colors", "--json")
	if err != nil {
		t.Fatalf("ask --json: %v", err)
	}
	var ans askOutput
	if err := json.Unmarshal([]byte(out), &ans); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if ans.Page != 0 || ans.Answer != "From the text: the sky is blue" {
		t.Fatalf("unexpected answer %+v", ans)
	}
}

func TestAskCmd_MissingModule(t *testing.T) {
	setupTestServices(t)
	if _, err := run(t, "ask", "anything", "-m", "nowhere"); !errors.Is(err, domain.ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
}

func TestModulesCmd(t *testing.T) {
	setupTestServices(t)

	out, err := run(t, "modules", "list")
	if err != nil || !strings.Contains(out, "No modules found.") {
		t.Fatalf("empty list: %q, %v", out, err)
	}

	for _, m := range []string{"zeta", "alpha"} {
		if _, err := run(t, "ingest", writeDoc(t, "doc.pdf"), "-m", m); err != nil {
			t.Fatal(err)
		}
	}
	out, err = run(t, "modules", "list")
	if err != nil || out != "alpha\nzeta\n" {
		t.Fatalf("list: %q, %v", out, err)
	}

	if _, err := run(t, "modules", "delete", "alpha"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := run(t, "modules", "delete", "alpha"); !errors.Is(err, domain.ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
}

func TestRootCmd_BootstrapOnce(t *testing.T) {
	services = nil
	calls := 0
	var gotPath string
	SetBootstrap(func(path string) (Services, error) {
		calls++
		gotPath = path
		return Services{}, errors.New("no config")
	})
	t.Cleanup(func() {
		bootstrap = nil
		services = nil
		configPath = ""
	})

	if _, err := run(t, "version"); err != nil {
		t.Fatalf("version must not bootstrap: %v", err)
	}
	if calls != 0 {
		t.Fatalf("bootstrap called %d times for version", calls)
	}

	if _, err := run(t, "modules", "list", "--config", "custom.yaml"); err == nil || err.Error() != "no config" {
		t.Fatalf("expected bootstrap error, got %v", err)
	}
	if calls != 1 || gotPath != "custom.yaml" {
		t.Fatalf("bootstrap calls=%d path=%q", calls, gotPath)
	}
}
