// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Command touchgrassd is the daemon process: it owns every chat adapter,
// the session registry, and the control server the wrapper and CLI talk
// to (§2, §4.2).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tomtev/touchgrass/internal/app"
	"github.com/tomtev/touchgrass/internal/paths"
)

var version = "0.1.0"

func main() {
	var (
		addr        string
		showVersion bool
	)
	flag.StringVar(&addr, "addr", "127.0.0.1:4719", "control server listen address")
	flag.BoolVar(&showVersion, "version", false, "show version")
	flag.Parse()

	if showVersion {
		fmt.Printf("touchgrassd %s\n", version)
		os.Exit(0)
	}

	home, err := paths.Resolve()
	if err != nil {
		log.Fatalf("touchgrassd: resolve home: %v", err)
	}
	if err := home.EnsureDirs(); err != nil {
		log.Fatalf("touchgrassd: ensure dirs: %v", err)
	}
	if f, err := os.OpenFile(home.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
		log.SetOutput(f)
	} else {
		log.Printf("touchgrassd: open log file: %v", err)
	}

	if err := home.KillDuplicateDaemons("touchgrassd"); err != nil {
		log.Printf("touchgrassd: sweep duplicate daemons: %v", err)
	}

	lock := paths.NewFileLock(home.LockFile)
	if err := lock.Acquire(); err != nil {
		log.Fatalf("touchgrassd: %v", err)
	}
	defer lock.Release()

	if err := home.WritePidFile(); err != nil {
		log.Printf("touchgrassd: write pid file: %v", err)
	}
	defer home.RemovePidFile()

	application, err := app.New(app.Options{
		Home:    home,
		Addr:    addr,
		Version: version,
	})
	if err != nil {
		log.Fatalf("touchgrassd: %v", err)
	}

	if err := application.Run(context.Background()); err != nil {
		log.Fatalf("touchgrassd: %v", err)
	}
}
