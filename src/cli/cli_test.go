package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud-init-strict/src/cli"
	"cloud-init-strict/src/datasource"
	"cloud-init-strict/src/version"
)

// run executes the CLI with the given arguments and optional stdin.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := cli.NewRootCmd(&stdout, &stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// writeSeed creates a nocloud seed directory with the given user-data.
func writeSeed(t *testing.T, userdata string) string {
	t.Helper()
	dir := t.TempDir()
	meta := "instance-id: iid-cli-test\nlocal-hostname: clihost\n"
	if err := os.WriteFile(filepath.Join(dir, "meta-data"), []byte(meta), 0o644); err != nil {
		t.Fatal(err)
	}
	if userdata != "" {
		if err := os.WriteFile(filepath.Join(dir, "user-data"), []byte(userdata), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// writeConfig writes a system config probing only the nocloud seed.
func writeConfig(t *testing.T, seedDir string, extra string) string {
	t.Helper()
	cfg := "datasource_list: [strict-proxy, nocloud]\n" +
		"probe_timeout_seconds: 2\n" +
		"datasource:\n" +
		"  nocloud:\n" +
		"    seedfrom: \"dir:" + seedDir + "\"\n" +
		extra
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := run(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(stdout) != version.Version {
		t.Fatalf("version output %q", stdout)
	}
}

func TestFilterCmd_Stdin(t *testing.T) {
	in := "#cloud-boothook\nhook\n#cloud-config\nhostname: web\n"
	stdout, _, err := run(t, in, "filter")
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "#cloud-config\nhostname: web" {
		t.Fatalf("filter output %q", stdout)
	}
}

func TestFilterCmd_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user-data")
	if err := os.WriteFile(path, []byte("no hooks here\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout, _, err := run(t, "", "filter", path)
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "no hooks here\n" {
		t.Fatalf("filter output %q", stdout)
	}
}

func TestDetectCmd_Table(t *testing.T) {
	cfgPath := writeConfig(t, writeSeed(t, ""), "")
	stdout, _, err := run(t, "", "--config", cfgPath, "detect")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "selected: nocloud (stage init-local)") {
		t.Fatalf("detect output missing selection:\n%s", stdout)
	}
	if !strings.Contains(stdout, "DATASOURCE") {
		t.Fatalf("detect output missing table header:\n%s", stdout)
	}
}

func TestDetectCmd_JSONAndReportFile(t *testing.T) {
	cfgPath := writeConfig(t, writeSeed(t, ""), "")
	reportPath := filepath.Join(t.TempDir(), "report.json")
	stdout, _, err := run(t, "", "--config", cfgPath, "detect", "-o", "json", "--report", reportPath)
	if err != nil {
		t.Fatal(err)
	}

	var report datasource.Report
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("detect json output: %v\n%s", err, stdout)
	}
	if report.Selected != "nocloud" || report.RunID == "" {
		t.Fatalf("unexpected report: %+v", report)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	var fromFile datasource.Report
	if err := json.Unmarshal(data, &fromFile); err != nil {
		t.Fatalf("report file: %v", err)
	}
	if fromFile.RunID != report.RunID {
		t.Fatalf("report file disagrees with stdout: %q vs %q", fromFile.RunID, report.RunID)
	}
}

func TestDetectCmd_NothingFound(t *testing.T) {
	// Empty seed dir: nocloud declines, nothing else is configured.
	cfgPath := writeConfig(t, t.TempDir(), "")
	_, _, err := run(t, "", "--config", cfgPath, "detect")
	if err == nil || !strings.Contains(err.Error(), "no functional datasource") {
		t.Fatalf("expected detection failure, got %v", err)
	}
}

func TestUserdataCmd_FiltersBoothooks(t *testing.T) {
	ud := "#cloud-boothook\necho hi\n#cloud-config\nhostname: web\n"
	cfgPath := writeConfig(t, writeSeed(t, ud), "")
	stdout, _, err := run(t, "", "--config", cfgPath, "userdata")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(stdout) != "#cloud-config\nhostname: web" {
		t.Fatalf("userdata output %q", stdout)
	}
}

func TestUserdataCmd_NoUserdataIsQuiet(t *testing.T) {
	cfgPath := writeConfig(t, writeSeed(t, ""), "")
	stdout, _, err := run(t, "", "--config", cfgPath, "userdata")
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "" {
		t.Fatalf("expected no output, got %q", stdout)
	}
}

func TestCleanCmd(t *testing.T) {
	extra := "cc_whitelist_filter:\n" +
		"  allowed_keys: [hostname, final_message, runcmd, write_files]\n"
	cfgPath := writeConfig(t, writeSeed(t, ""), extra)
	doc := "hostname: web01\n" +
		"final_message: done\n" +
		"runcmd: [\"echo hi\"]\n" +
		"datasource_list: [ec2]\n" +
		"write_files:\n" +
		"  - path: /tmp/ok\n" +
		"    content: fine\n" +
		"  - path: /etc/passwd\n" +
		"    content: nope\n"

	stdout, _, err := run(t, doc, "--config", cfgPath, "clean")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "hostname: web01") || !strings.Contains(stdout, "final_message: done") {
		t.Fatalf("allowed keys missing:\n%s", stdout)
	}
	if strings.Contains(stdout, "runcmd") || strings.Contains(stdout, "datasource_list") {
		t.Fatalf("disallowed keys survived:\n%s", stdout)
	}
	if !strings.Contains(stdout, "/tmp/ok") || strings.Contains(stdout, "/etc/passwd") {
		t.Fatalf("write_files not filtered:\n%s", stdout)
	}
}

func TestBoothookRunCmd_DryRun(t *testing.T) {
	cfgPath := writeConfig(t, writeSeed(t, ""), "")
	ud := "#cloud-boothook\n#!/bin/sh\ntrue\n#cloud-config\nhostname: x\n"
	path := filepath.Join(t.TempDir(), "user-data")
	if err := os.WriteFile(path, []byte(ud), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := run(t, "", "--config", cfgPath, "--dry-run", "boothook", "run", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "would run 1 boothook part(s)") {
		t.Fatalf("dry-run output %q", stdout)
	}
}

func TestBoothookRunCmd_NoParts(t *testing.T) {
	cfgPath := writeConfig(t, writeSeed(t, ""), "")
	stdout, _, err := run(t, "#cloud-config\nhostname: x\n", "--config", cfgPath, "boothook", "run")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "no boothook parts found") {
		t.Fatalf("output %q", stdout)
	}
}

func TestBoothookRunCmd_DisabledWithoutForce(t *testing.T) {
	extra := "handlers:\n  boothook_enabled: false\n"
	cfgPath := writeConfig(t, writeSeed(t, ""), extra)
	_, _, err := run(t, "#cloud-boothook\ntrue\n", "--config", cfgPath, "--yes", "boothook", "run")
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("expected disabled error, got %v", err)
	}
}

func TestValidateCmd(t *testing.T) {
	cfgPath := writeConfig(t, writeSeed(t, ""), "")
	stdout, _, err := run(t, "", "validate", cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "OK") {
		t.Fatalf("validate output %q", stdout)
	}
}

func TestValidateCmd_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("datasource_list: notalist\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := run(t, "", "validate", path); err == nil {
		t.Fatal("expected schema error")
	}
}

func TestExplicitMissingConfigIsAnError(t *testing.T) {
	_, _, err := run(t, "", "--config", "/nonexistent/config.yaml", "detect")
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}
