package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/lux23/settings-service/internal/config"
	"github.com/lux23/settings-service/internal/services"
)

func TestProvisionCandidate(t *testing.T) {
	catalog := services.NewSupportLineCatalog(config.DefaultSupportLines())
	saved := provisionOpts
	t.Cleanup(func() { provisionOpts = saved })

	tests := []struct {
		name      string
		alias     string
		cbu       string
		phone     string
		explicit  int
		wantKind  services.PaymentKind
		wantIndex int
		wantErr   bool
	}{
		{name: "alias with known line", alias: "lux.pagos", phone: "541127214473", explicit: -1, wantKind: services.PaymentKindAlias, wantIndex: 1},
		{name: "cbu with custom line", cbu: "0000003100012345678901", phone: "5491100001111", explicit: -1, wantKind: services.PaymentKindCBU, wantIndex: 3},
		{name: "explicit index wins", alias: "lux.pagos", phone: "541127214473", explicit: 2, wantKind: services.PaymentKindAlias, wantIndex: 2},
		{name: "both destinations", alias: "lux.pagos", cbu: "0000003100012345678901", explicit: -1, wantErr: true},
		{name: "no destination", explicit: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provisionOpts = saved
			provisionOpts.alias = tt.alias
			provisionOpts.cbu = tt.cbu
			provisionOpts.phone = tt.phone
			provisionOpts.lineIndex = tt.explicit

			rec, err := provisionCandidate(catalog, tt.explicit >= 0)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if rec.PaymentDestination.Kind != tt.wantKind {
				t.Errorf("kind = %q, expected %q", rec.PaymentDestination.Kind, tt.wantKind)
			}
			if rec.Rotation.CurrentLineIndex != tt.wantIndex {
				t.Errorf("index = %d, expected %d", rec.Rotation.CurrentLineIndex, tt.wantIndex)
			}
		})
	}
}

func pipeWith(t *testing.T, content string) *os.File {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		w.WriteString(content)
		w.Close()
	}()
	t.Cleanup(func() { r.Close() })
	return r
}

func TestReadPin_FromPipe(t *testing.T) {
	pin, err := readPin(pipeWith(t, "  2468 \n"), io.Discard)
	if err != nil {
		t.Fatalf("readPin: %v", err)
	}
	if pin != "2468" {
		t.Errorf("pin = %q, expected 2468", pin)
	}

	if _, err := readPin(pipeWith(t, "\n"), io.Discard); err == nil {
		t.Error("expected error for empty pin")
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	if err := writeDefaultConfig(path, false); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if cfg.Database.Driver != "sqlite" || len(cfg.SupportLines) != 4 {
		t.Errorf("unexpected config: driver %q, %d lines", cfg.Database.Driver, len(cfg.SupportLines))
	}

	if err := writeDefaultConfig(path, false); err == nil {
		t.Error("expected error when the file exists")
	}
	if err := writeDefaultConfig(path, true); err != nil {
		t.Errorf("--force should overwrite: %v", err)
	}
}
