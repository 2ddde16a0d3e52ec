package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/locvowork/sheetexport/internal/bootstrap"
	"github.com/locvowork/sheetexport/internal/logger"
	"github.com/locvowork/sheetexport/internal/service"
)

func main() {
	// Define flags
	requestPath := flag.String("request", "", "Path to a JSON export request")
	outPath := flag.String("out", "", "Output file (default: <fileName>.<format> in the current directory)")
	configPath := flag.String("config", "", "Export config YAML (overrides EXPORT_CONFIG_PATH)")
	format := flag.String("format", "", "Document format: xlsx, csv (overrides the request)")

	flag.Parse()

	if *requestPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *configPath != "" {
		os.Setenv("EXPORT_CONFIG_PATH", *configPath)
	}

	ctx := context.Background()

	app := bootstrap.NewApp()
	if err := app.Initialize(ctx); err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	req, err := readRequest(*requestPath)
	if err != nil {
		logger.ErrorLog(ctx, "Failed to read export request: %v", err)
		log.Fatal(err)
	}
	if *format != "" {
		req.Format = *format
	}

	res, err := app.ExportService.Export(ctx, req)
	if err != nil {
		logger.ErrorLog(ctx, "Export failed: %v", err)
		log.Fatal(err)
	}

	target := outputPath(*outPath, res.FileName)
	if err := os.WriteFile(target, res.Body, 0o644); err != nil {
		logger.ErrorLog(ctx, "Failed to write output file: %v", err)
		log.Fatal(err)
	}

	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Wrote %s (%d bytes)\n", target, len(res.Body))
	fmt.Printf("Sheets: %s\n", strings.Join(res.Sheets, ", "))
}

func readRequest(path string) (*service.ExportRequest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var req service.ExportRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &req, nil
}

func outputPath(out, fileName string) string {
	if out == "" {
		return fileName
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, fileName)
	}
	return out
}
