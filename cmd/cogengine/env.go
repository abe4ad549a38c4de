package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// loadEnvFile loads KEY=VALUE pairs from envFile into the process
// environment without overriding variables that are already set. A missing
// file is ignored; relative paths resolve against the working directory.
func loadEnvFile(envFile string) (string, error) {
	envFile = strings.TrimSpace(envFile)
	if envFile == "" {
		return "", nil
	}
	if !filepath.IsAbs(envFile) {
		pwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		envFile = filepath.Join(pwd, envFile)
	}
	absPath := filepath.Clean(envFile)

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return absPath, nil
		}
		return "", fmt.Errorf("stat env file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("env file %s is not a regular file", absPath)
	}
	if err := godotenv.Load(absPath); err != nil {
		return "", fmt.Errorf("load env file %s: %w", absPath, err)
	}
	return absPath, nil
}
