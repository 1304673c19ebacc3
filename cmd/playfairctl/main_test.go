package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RowanDark/playfair/internal/cipher"
	"github.com/RowanDark/playfair/internal/config"
	"github.com/RowanDark/playfair/internal/logging"
)

// runCLI executes a subcommand with captured output and an isolated
// configuration environment.
func runCLI(t *testing.T, input string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevIn, prevOut, prevErr := stdin, stdout, stderr
	stdin, stdout, stderr = strings.NewReader(input), &out, &errOut
	t.Cleanup(func() {
		stdin, stdout, stderr = prevIn, prevOut, prevErr
	})
	code := run(args)
	return code, strings.TrimSpace(out.String()), errOut.String()
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	return home
}

func TestEncryptDecrypt(t *testing.T) {
	isolate(t)

	code, out, errOut := runCLI(t, "", "decrypt", "-k", "superspy", "IKEWE NENXL NQLPZ SLERU MRHEE RYBOF NEINC HCV")
	if code != 0 {
		t.Fatalf("decrypt exit %d: %s", code, errOut)
	}
	if out != "HIPXPOPOTOMONSTROSESQUIPPEDALIOPHOBIAX" {
		t.Fatalf("unexpected plaintext %q", out)
	}

	code, out, errOut = runCLI(t, "Hide the gold in the tree stump!\n", "encrypt", "-keyword", "PLAYFAIREXAMPLE", "-group", "5")
	if code != 0 {
		t.Fatalf("encrypt exit %d: %s", code, errOut)
	}
	if out != "BMODZ BXDNA BEKUD MUIXM MOUVI F" {
		t.Fatalf("unexpected ciphertext %q", out)
	}
}

func TestEncryptRawRejectsPunctuation(t *testing.T) {
	isolate(t)
	code, _, errOut := runCLI(t, "", "encrypt", "-k", "MONARCHY", "-raw", "ATTACK AT DAWN")
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(errOut, "unknown letter") {
		t.Fatalf("unexpected error output %q", errOut)
	}
}

func TestKeywordIsNormalized(t *testing.T) {
	isolate(t)

	code, want, errOut := runCLI(t, "", "encrypt", "-k", "SUPERSPY", "attack at dawn")
	if code != 0 {
		t.Fatalf("encrypt exit %d: %s", code, errOut)
	}
	code, got, errOut := runCLI(t, "", "encrypt", "-k", "super spy!", "attack at dawn")
	if code != 0 {
		t.Fatalf("encrypt with spaced keyword exit %d: %s", code, errOut)
	}
	if got != want {
		t.Fatalf("spaced keyword gave %q, want %q", got, want)
	}

	if code, _, _ := runCLI(t, "", "encrypt", "-raw", "-k", "super spy", "ATTACK"); code != 2 {
		t.Fatalf("raw mode should keep the keyword as given, got exit %d", code)
	}
}

func TestConfiguredFillerAppliesToEveryCommand(t *testing.T) {
	isolate(t)
	t.Setenv("PLAYFAIR_FILLER", "Q")

	commands := map[string][]string{
		"encrypt":    {"encrypt", "-k", "SUPERSPY", "A"},
		"pipeline":   {"pipeline", "-k", "SUPERSPY", "-input", "A", "playfair_encrypt"},
		"recipe run": {"recipe", "run", "-k", "SUPERSPY", "playfair-classic", "A"},
	}
	for name, args := range commands {
		t.Run(name, func(t *testing.T) {
			code, out, errOut := runCLI(t, "", args...)
			if code != 0 {
				t.Fatalf("exit %d: %s", code, errOut)
			}
			if out != "DM" {
				t.Fatalf("expected filler Q to give DM, got %q", out)
			}
		})
	}
}

func TestExplicitGrid(t *testing.T) {
	isolate(t)
	const square = "SUPER/YABCD/FGHIK/LMNOQ/TVWXZ"

	code, out, errOut := runCLI(t, "", "decrypt", "-grid", square, "IKEWENENXLNQLPZSLERUMRHEERYBOFNEINCHCV")
	if code != 0 {
		t.Fatalf("decrypt exit %d: %s", code, errOut)
	}
	if out != "HIPXPOPOTOMONSTROSESQUIPPEDALIOPHOBIAX" {
		t.Fatalf("unexpected plaintext %q", out)
	}

	code, out, errOut = runCLI(t, "", "pipeline", "-grid", "super,yabcd,fghik,lmnoq,tvwxz", "-input", "ATTACK", "playfair_encrypt")
	if code != 0 {
		t.Fatalf("pipeline exit %d: %s", code, errOut)
	}
	code, want, _ := runCLI(t, "", "encrypt", "-k", "SUPERSPY", "ATTACK")
	if code != 0 || out != want {
		t.Fatalf("grid pipeline gave %q, keyword gave %q", out, want)
	}

	tests := map[string][]string{
		"duplicate letter":  {"grid", "-grid", "SUPER/YABCD/FGHIK/LMNOQ/TVWXS"},
		"short grid":        {"encrypt", "-grid", "SUPER/YABCD", "ATTACK"},
		"keyword and grid":  {"encrypt", "-k", "SUPERSPY", "-grid", square, "ATTACK"},
		"pipeline conflict": {"pipeline", "-k", "SUPERSPY", "-grid", square, "-input", "A", "playfair_encrypt"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if code, _, _ := runCLI(t, "", args...); code != 2 {
				t.Fatalf("expected exit 2, got %d", code)
			}
		})
	}
}

func TestEncryptEmptyInput(t *testing.T) {
	isolate(t)
	code, _, _ := runCLI(t, "1234", "encrypt", "-k", "MONARCHY")
	if code != 2 {
		t.Fatalf("expected exit 2 for empty message, got %d", code)
	}
}

func TestGridAndSegment(t *testing.T) {
	isolate(t)

	code, out, _ := runCLI(t, "", "grid", "SUPERSPY")
	if code != 0 {
		t.Fatalf("grid exit %d", code)
	}
	want := "S U P E R\nY A B C D\nF G H I K\nL M N O Q\nT V W X Z"
	if out != want {
		t.Fatalf("unexpected grid:\n%s", out)
	}

	code, out, _ = runCLI(t, "", "segment", "-filler", "q", "balloon", "xx")
	if code != 0 {
		t.Fatalf("segment exit %d", code)
	}
	if !strings.HasPrefix(out, "BA LQ LO ON") {
		t.Fatalf("unexpected segmentation %q", out)
	}
}

func TestNormalizeAndDetect(t *testing.T) {
	isolate(t)

	code, out, _ := runCLI(t, "", "normalize", "Ça fait déjà vu")
	if code != 0 || out != "CAFAITDEIAVU" {
		t.Fatalf("normalize = %d %q", code, out)
	}
	code, out, _ = runCLI(t, "", "normalize", "-keep-j", "jeu")
	if code != 0 || out != "JEU" {
		t.Fatalf("normalize keep-j = %d %q", code, out)
	}

	code, out, _ = runCLI(t, "RSSRD ERSBR NY", "detect")
	if code != 0 || !strings.HasPrefix(out, "playfair") {
		t.Fatalf("detect = %d %q", code, out)
	}
	code, _, _ = runCLI(t, "", "detect", "AAB")
	if code != 1 {
		t.Fatalf("expected odd-length text to be rejected, got %d", code)
	}
}

func TestPipelineCommand(t *testing.T) {
	isolate(t)

	code, out, errOut := runCLI(t, "attack at dawn", "pipeline", "-k", "monarchy", "playfair_normalize", "playfair_encrypt", "group_five:size=4")
	if code != 0 {
		t.Fatalf("pipeline exit %d: %s", code, errOut)
	}
	if out != "RSSR DERS BRNY" {
		t.Fatalf("unexpected output %q", out)
	}

	code, out, errOut = runCLI(t, "RSSR DERS BRNY", "pipeline", "-k", "MONARCHY", "-reverse", "playfair_encrypt", "group_five:size=4")
	if code != 0 {
		t.Fatalf("reverse pipeline exit %d: %s", code, errOut)
	}
	if out != "ATTACKATDAWN" {
		t.Fatalf("unexpected reversed output %q", out)
	}

	code, _, _ = runCLI(t, "A", "pipeline", "rot13")
	if code == 0 {
		t.Fatal("expected unknown operation to fail")
	}
}

func TestRecipeCommands(t *testing.T) {
	home := isolate(t)

	code, _, errOut := runCLI(t, "", "recipe", "save", "-name", "field kit", "-tags", "field, wartime", "playfair_normalize", "playfair_encrypt", "group_five")
	if code != 0 {
		t.Fatalf("recipe save exit %d: %s", code, errOut)
	}
	if _, err := os.Stat(filepath.Join(home, ".playfair", "recipes", "field_kit.json")); err != nil {
		t.Fatalf("recipe not persisted: %v", err)
	}

	code, out, _ := runCLI(t, "", "recipe", "list", "-q", "wartime")
	if code != 0 || !strings.Contains(out, "field kit") {
		t.Fatalf("recipe list = %d %q", code, out)
	}

	code, out, errOut = runCLI(t, "", "recipe", "run", "-k", "MONARCHY", "field kit", "attack", "at", "dawn")
	if code != 0 {
		t.Fatalf("recipe run exit %d: %s", code, errOut)
	}
	if out != "RSSRD ERSBR NY" {
		t.Fatalf("unexpected recipe output %q", out)
	}

	code, out, _ = runCLI(t, "", "recipe", "show", "playfair-read")
	if code != 0 || !strings.Contains(out, `"ungroup"`) {
		t.Fatalf("recipe show = %d %q", code, out)
	}

	if code, _, _ = runCLI(t, "", "recipe", "delete", "field kit"); code != 0 {
		t.Fatalf("recipe delete exit %d", code)
	}
	if code, _, _ = runCLI(t, "", "recipe", "delete", "field kit"); code != 1 {
		t.Fatalf("second delete should fail, got %d", code)
	}
}

func TestConfigPrintHidesSecret(t *testing.T) {
	isolate(t)
	t.Setenv("PLAYFAIR_JWT_SECRET", "hunter2")

	code, out, _ := runCLI(t, "", "config", "print")
	if code != 0 {
		t.Fatalf("config print exit %d", code)
	}
	if strings.Contains(out, "hunter2") {
		t.Fatal("secret printed in clear")
	}
	if !strings.Contains(out, "jwt_secret: sha256:") {
		t.Fatalf("expected fingerprint, got %q", out)
	}
}

func TestDispatchErrors(t *testing.T) {
	isolate(t)
	tests := [][]string{
		{"bogus"},
		{"recipe"},
		{"recipe", "bogus"},
		{"config"},
		{"version", "extra"},
		{"encrypt", "-group", "-1", "A"},
	}
	for _, args := range tests {
		if code, _, _ := runCLI(t, "", args...); code != 2 {
			t.Errorf("%v: expected exit 2, got %d", args, code)
		}
	}
	if code, out, _ := runCLI(t, "", "version"); code != 0 || out != "playfair dev" {
		t.Errorf("version = %d %q", code, out)
	}
}

func TestParseStep(t *testing.T) {
	tests := []struct {
		raw  string
		want cipher.OperationConfig
		err  bool
	}{
		{raw: "group_five", want: cipher.OperationConfig{Name: "group_five"}},
		{raw: "group_five:size=4", want: cipher.OperationConfig{Name: "group_five", Parameters: map[string]any{"size": 4}}},
		{raw: "playfair_encrypt:keyword=SUPERSPY,filler=T,fold_j=true", want: cipher.OperationConfig{
			Name:       "playfair_encrypt",
			Parameters: map[string]any{"keyword": "SUPERSPY", "filler": "T", "fold_j": true},
		}},
		{raw: ":size=4", err: true},
		{raw: "group_five:size", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseStep(tt.raw)
			if tt.err {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseStep: %v", err)
			}
			if got.Name != tt.want.Name || len(got.Parameters) != len(tt.want.Parameters) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
			for k, v := range tt.want.Parameters {
				if got.Parameters[k] != v {
					t.Fatalf("param %s = %#v, want %#v", k, got.Parameters[k], v)
				}
			}
		})
	}
}

func TestServeRejectsBadFlags(t *testing.T) {
	isolate(t)
	if code, _, _ := runCLI(t, "", "serve", "-http", "", "-grpc", ""); code != 2 {
		t.Fatalf("expected exit 2 with no listeners, got %d", code)
	}
	if code, _, _ := runCLI(t, "", "serve", "-log-level", "loud"); code != 2 {
		t.Fatalf("expected exit 2 for bad log level, got %d", code)
	}
}

func TestServeListenFailureStartsNothing(t *testing.T) {
	isolate(t)

	reserved, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	httpAddr := reserved.Addr().String()
	_ = reserved.Close()

	cfg := config.Default()
	cfg.Server.HTTPAddr = httpAddr
	cfg.Server.GRPCAddr = "127.0.0.1:-1"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := serve(ctx, cfg, "", 0, logger, logging.Discard()); err == nil {
		t.Fatal("expected listen error")
	}
	if ctx.Err() != nil {
		t.Fatal("serve should fail without waiting for the context")
	}

	time.Sleep(50 * time.Millisecond)
	l, err := net.Listen("tcp", httpAddr)
	if err != nil {
		t.Fatalf("http address still bound after failed serve: %v", err)
	}
	_ = l.Close()
}

func TestPrintResolvedConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.RecipesDir = "/srv/recipes"
	printResolvedConfig(&buf, cfg)
	for _, want := range []string{"filler: X", "fold_j: true", "recipes_dir: /srv/recipes", "jwt_secret: \n"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("missing %q in:\n%s", want, buf.String())
		}
	}
}
