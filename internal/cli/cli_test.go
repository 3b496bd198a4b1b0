package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pratik-mahalle/bizrec/internal/testutil"
	"github.com/pratik-mahalle/bizrec/pkg/client"
)

// execute runs the root command against serverURL and returns what it printed
func execute(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })

	rootCmd.SetArgs(append(args, "--server", serverURL, "--log-level", "off"))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCommands(t *testing.T) {
	fake := testutil.NewFakeService()
	srv := testutil.NewFakeServer(t, fake)
	id := fake.Seed(client.BusinessDraft{Name: "Acme", Industry: "Retail", ContactEmail: "ops@acme.test"})
	fake.Recommendations[id+"/0"] = &client.RecommendationResult{
		ProductName:     "Widget",
		Recommendations: []client.Recommendation{{Index: 3, ProductName: "Gadget"}},
	}
	precision := 0.5
	fake.MetricsResults[id] = &client.MetricsResult{PrecisionAtK: &precision}

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
		wantErr bool
	}{
		{
			name: "business list table",
			args: []string{"business", "list", "-o", "table"},
			want: []string{"ID", "NAME", "Acme", "Retail"},
		},
		{
			name: "business get",
			args: []string{"business", "get", id, "-o", "table"},
			want: []string{"Name:", "Acme", "Contact:", "ops@acme.test"},
		},
		{
			name:    "business get unknown",
			args:    []string{"business", "get", "99", "-o", "table"},
			wantErr: true,
		},
		{
			name: "recommend",
			args: []string{"recommend", id, "0", "-k", "1", "-o", "table"},
			want: []string{"Recommendations for: Widget", "RANK", "Gadget"},
		},
		{
			name:    "metrics renders present measures only",
			args:    []string{"metrics", id, "-o", "table"},
			want:    []string{"Precision@5", "0.500"},
			notWant: []string{"Recall", "MAP", "MRR", "Diversity"},
		},
		{
			name: "status",
			args: []string{"business", "status", id, "-o", "table"},
			want: []string{"Data:", "[-] no"},
		},
		{
			name:    "upload missing file",
			args:    []string{"upload", id, filepath.Join(t.TempDir(), "missing.csv"), "-o", "table"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, srv.URL, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output contains %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestCommands_JSONOutput(t *testing.T) {
	fake := testutil.NewFakeService()
	srv := testutil.NewFakeServer(t, fake)
	fake.Seed(client.BusinessDraft{Name: "Acme"})
	fake.Seed(client.BusinessDraft{Name: "Beta"})

	out, err := execute(t, srv.URL, "business", "list", "-o", "json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var list []client.Business
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("output is not a JSON list: %v\n%s", err, out)
	}
	if len(list) != 2 || list[0].Name != "Acme" || list[1].Name != "Beta" {
		t.Errorf("list = %+v", list)
	}
}

func TestCommands_Upload(t *testing.T) {
	fake := testutil.NewFakeService()
	srv := testutil.NewFakeServer(t, fake)
	id := fake.Seed(client.BusinessDraft{Name: "Acme"})

	path := filepath.Join(t.TempDir(), "catalog.csv")
	if err := os.WriteFile(path, []byte("id,name\n1,Widget\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, srv.URL, "upload", id, path, "-o", "table")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "Dataset uploaded") {
		t.Errorf("output = %q", out)
	}
	if len(fake.Uploads) != 1 || fake.Uploads[0].Filename != "catalog.csv" {
		t.Errorf("service received %+v", fake.Uploads)
	}
}

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	defer func() { stdout = prev }()

	tbl := NewTable("INDEX", "PRODUCT")
	tbl.AddRow("1", "Widget")
	tbl.AddRow("12")
	tbl.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %q, want header, separator and two rows", lines)
	}
	if !strings.HasPrefix(lines[1], "-----") {
		t.Errorf("separator = %q", lines[1])
	}
	if strings.Index(lines[0], "PRODUCT") != strings.Index(lines[2], "Widget") {
		t.Errorf("columns not aligned:\n%s", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{in: "Widget", max: 10, want: "Widget"},
		{in: "Widget deluxe", max: 9, want: "Widget..."},
		{in: "Café crème au lait", max: 8, want: "Café ..."},
		{in: "Widget", max: 3, want: "Wid"},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
