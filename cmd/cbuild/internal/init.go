package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cbuild-io/cbuild/internal/config"
)

var (
	initWorkspace bool
	initTemplate  string
)

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Scaffold a new project or workspace",
	Long:  `Init creates a project skeleton in the current directory, or a workspace with --workspace. The name defaults to the directory name.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initWorkspace, "workspace", false, "create a workspace instead of a project")
	initCmd.Flags().StringVar(&initTemplate, "template", "app", "project template: app or lib")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	name := filepath.Base(cwd)
	if len(args) > 0 {
		name = args[0]
	}
	if initWorkspace {
		return initWorkspaceFiles(cwd, name)
	}
	return initProjectFiles(cwd, name)
}

func initWorkspaceFiles(dir, name string) error {
	if config.IsWorkspace(dir) {
		return fmt.Errorf("%s already exists", config.WorkspaceFile)
	}
	ws := &config.Workspace{Name: name}
	if err := config.SaveWorkspace(ws, dir); err != nil {
		return err
	}
	fmt.Printf("created workspace %s\n", name)
	fmt.Printf("add projects under %s/<name>/ and list them in %s\n", dir, config.WorkspaceFile)
	return nil
}

func initProjectFiles(dir, name string) error {
	if _, err := os.Stat(filepath.Join(dir, config.ProjectFile)); err == nil {
		return fmt.Errorf("%s already exists", config.ProjectFile)
	}

	kind := config.KindExecutable
	if initTemplate == "lib" {
		kind = config.KindStaticLibrary
	} else if initTemplate != "app" {
		return fmt.Errorf("unknown template %q (want app or lib)", initTemplate)
	}

	p := &config.Project{
		Project: config.Info{
			Name:     name,
			Kind:     kind,
			Version:  "0.1.0",
			Language: "c++",
			Standard: "c++17",
		},
		Build: config.Build{
			DefaultConfig: config.DefaultConfig,
			Configs: map[string]config.ConfigSettings{
				"Debug":   {Flags: []string{"NO_OPT", "DEBUG_INFO"}},
				"Release": {Flags: []string{"OPTIMIZE", "DNDEBUG"}},
			},
		},
	}
	if err := config.SaveProject(p, dir); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		return err
	}
	if kind == config.KindExecutable {
		main := filepath.Join(dir, "src", "main.cpp")
		if err := writeIfAbsent(main, helloMain(name)); err != nil {
			return err
		}
	} else {
		if err := os.MkdirAll(filepath.Join(dir, "include", name), 0o755); err != nil {
			return err
		}
		header := filepath.Join(dir, "include", name, name+".h")
		if err := writeIfAbsent(header, libHeader(name)); err != nil {
			return err
		}
		source := filepath.Join(dir, "src", name+".cpp")
		if err := writeIfAbsent(source, libSource(name)); err != nil {
			return err
		}
	}
	fmt.Printf("created %s project %s\n", initTemplate, name)
	return nil
}

func writeIfAbsent(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func helloMain(name string) string {
	return `#include <iostream>

int main() {
    std::cout << "Hello from ` + name + `!" << std::endl;
    return 0;
}
`
}

func libHeader(name string) string {
	return `#pragma once

namespace ` + name + ` {

int answer();

}
`
}

func libSource(name string) string {
	return `#include "` + name + `/` + name + `.h"

namespace ` + name + ` {

int answer() { return 42; }

}
`
}
