// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// tg is the developer-facing entrypoint: `tg claude`/`tg codex`/`tg pi`/`tg
// kimi` wrap the named tool in a PTY bridged to chat (§4.3); every other
// subcommand is a thin adapter over the daemon's control server (§6).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strings"
	"time"

	"github.com/tomtev/touchgrass/internal/config"
	"github.com/tomtev/touchgrass/internal/paths"
	"github.com/tomtev/touchgrass/internal/wrapper"
	"github.com/tomtev/touchgrass/pkg/client"
)

var version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	home, err := paths.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tg: %v\n", err)
		return 1
	}

	cmd := args[0]
	rest := args[1:]

	if tool, ok := wrapper.DetectTool(cmd); ok {
		return runWrapped(home, tool, rest)
	}

	switch cmd {
	case "setup":
		return cmdSetup(home, rest)
	case "pair":
		return cmdPair(home)
	case "doctor":
		return cmdDoctor(home)
	case "channels":
		return cmdChannels(home)
	case "logs":
		return cmdLogs(home, rest)
	case "peek":
		return cmdPeek(home, rest)
	case "resume":
		return cmdResume(home, rest)
	case "restart":
		return cmdRestart(home, rest)
	case "send":
		return cmdSend(home, rest)
	case "write":
		return cmdWrite(home, rest)
	case "version", "-v", "--version":
		fmt.Printf("tg %s\n", version)
		return 0
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "tg: unknown command %q\n", cmd)
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Println(`usage: tg <command> [args...]

  tg setup [--telegram TOKEN] [--slack TOKEN [--slack-app-token TOKEN]] [--channel NAME] [--list-channels] [--show]
  tg pair
  tg <claude|codex|pi|kimi> [args...] [--channel SELECTOR]
  tg resume
  tg restart [id]
  tg send <id> <text|--file PATH [caption]>
  tg write <id> <text|--file PATH>
  tg peek <id|--all> [count]
  tg logs [-n N] [-f]
  tg doctor
  tg channels`)
}

// newClient builds a control-server client pointed at the local daemon,
// reading the shared secret from TOUCHGRASS_HOME/daemon.auth.
func newClient(home *paths.Bundle, addr string) (*client.Client, error) {
	token, err := os.ReadFile(home.AuthFile)
	if err != nil {
		return nil, fmt.Errorf("tg: read auth token (is the daemon set up? run `tg setup`): %w", err)
	}
	if addr == "" {
		addr = "127.0.0.1:4719"
	}
	return client.New("http://"+addr, strings.TrimSpace(string(token))), nil
}

// daemonBinaryPath locates the touchgrassd binary alongside this one, the
// conventional layout for a two-binary module (§2).
func daemonBinaryPath() string {
	self, err := os.Executable()
	if err != nil {
		return "touchgrassd"
	}
	return strings.TrimSuffix(self, "tg") + "touchgrassd"
}

// runWrapped implements `tg <tool> [args...] [--channel SELECTOR]`.
func runWrapped(home *paths.Bundle, tool wrapper.Tool, args []string) int {
	fs := flag.NewFlagSet(string(tool), flag.ContinueOnError)
	channel := fs.String("channel", "", "chat selector: channel name, group title substring, \"dm\", or \"none\"")
	fs.SetOutput(os.Stderr)
	toolArgs, err := splitChannelFlag(fs, args, channel)
	if err != nil {
		return 1
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tg: getwd: %v\n", err)
		return 1
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tg: user home: %v\n", err)
		return 1
	}

	if err := preflightTool(tool); err != nil {
		fmt.Fprintf(os.Stderr, "tg: %v\n", err)
		return 1
	}

	c, err := newClient(home, "")
	if err != nil {
		// No auth token yet: the daemon has never been configured.
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	ctx := context.Background()
	if err := wrapper.EnsureDaemon(ctx, home, c, daemonBinaryPath()); err != nil {
		fmt.Fprintf(os.Stderr, "tg: %v\n", err)
		return 1
	}

	owner, err := currentOwnerUserID(home)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tg: %v\n", err)
		return 1
	}

	argv := append([]string{string(tool)}, toolArgs...)
	code, err := wrapper.Run(ctx, wrapper.Options{
		Tool:        tool,
		Argv:        argv,
		Cwd:         cwd,
		Home:        home,
		UserHome:    userHome,
		Client:      c,
		OwnerUserID: owner,
		Channel:     *channel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "tg: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	return code
}

// splitChannelFlag pulls --channel out of args wherever it appears,
// leaving the rest to pass straight through to the wrapped tool, since
// the tool's own flags must not be parsed or reordered by fs.
func splitChannelFlag(fs *flag.FlagSet, args []string, channel *string) ([]string, error) {
	var toolArgs []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--channel":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--channel requires a value")
			}
			*channel = args[i+1]
			i++
		case strings.HasPrefix(a, "--channel="):
			*channel = strings.TrimPrefix(a, "--channel=")
		default:
			toolArgs = append(toolArgs, a)
		}
	}
	_ = fs
	return toolArgs, nil
}

// preflightTool runs the wrapped tool's own --version flag and confirms
// it executes (§4.3 step 1). touchgrass has no minimum-version table of
// its own to check against -- only that the binary is present and runs.
func preflightTool(tool wrapper.Tool) error {
	if _, err := exec.LookPath(string(tool)); err != nil {
		return fmt.Errorf("%s not found on PATH", tool)
	}
	if err := exec.Command(string(tool), "--version").Run(); err != nil {
		return fmt.Errorf("%s --version failed: %w", tool, err)
	}
	return nil
}

// currentOwnerUserID resolves the local OS user as the session owner's
// user id for registration purposes when acting from the CLI directly
// (as opposed to a chat-originated restart, which already knows the
// owner from the session record).
func currentOwnerUserID(home *paths.Bundle) (string, error) {
	cfg, err := config.NewLoader().LoadWithDefaults(home.ConfigFile)
	if err != nil {
		return "", err
	}
	if _, userID, ok := cfg.FirstPairedUser(); ok {
		return userID, nil
	}
	osUser, err := user.Current()
	if err != nil {
		return "", err
	}
	return "local:" + osUser.Username, nil
}

func cmdDoctor(home *paths.Bundle) int {
	ok := true
	check := func(name string, err error) {
		if err != nil {
			fmt.Printf("[FAIL] %s: %v\n", name, err)
			ok = false
			return
		}
		fmt.Printf("[ OK ] %s\n", name)
	}

	_, err := config.NewLoader().Load(home.ConfigFile)
	check("config readable", err)

	c, cerr := newClient(home, "")
	if cerr != nil {
		check("control server reachable", cerr)
	} else {
		_, _, herr := c.Health(context.Background())
		check("control server reachable", herr)
	}

	for _, t := range []wrapper.Tool{wrapper.ToolClaude, wrapper.ToolCodex, wrapper.ToolPI, wrapper.ToolKimi} {
		_, err := exec.LookPath(string(t))
		check(string(t)+" on PATH", err)
	}

	info, serr := os.Stat(home.Home)
	if serr != nil {
		check("TOUCHGRASS_HOME permissions", serr)
	} else if info.Mode().Perm()&0077 != 0 {
		check("TOUCHGRASS_HOME permissions", fmt.Errorf("%s is group/world accessible (mode %o)", home.Home, info.Mode().Perm()))
	} else {
		check("TOUCHGRASS_HOME permissions", nil)
	}

	if !ok {
		return 1
	}
	return 0
}

func cmdChannels(home *paths.Bundle) int {
	c, err := newClient(home, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	entries, err := c.Channels.List(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "tg: %v\n", err)
		return 1
	}
	for _, e := range entries {
		busy := ""
		if e.Busy {
			busy = " (busy)"
		}
		fmt.Printf("%s\t%s\t%s%s\n", e.Name, e.Type, e.Title, busy)
	}
	return 0
}

func cmdLogs(home *paths.Bundle, args []string) int {
	fs := flag.NewFlagSet("logs", flag.ContinueOnError)
	n := fs.Int("n", 100, "number of trailing lines")
	follow := fs.Bool("f", false, "follow the log file")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	return tailLogFile(home.LogFile, *n, *follow)
}

func cmdPeek(home *paths.Bundle, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "tg: peek requires <id|--all> [count]")
		return 1
	}
	c, err := newClient(home, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	_ = c
	fmt.Fprintln(os.Stderr, "tg: peek is not yet wired to a transcript-replay endpoint")
	return 1
}

func cmdResume(home *paths.Bundle, args []string) int {
	c, err := newClient(home, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	tool := ""
	cwd, _ := os.Getwd()
	if len(args) > 0 {
		tool = args[0]
	}
	sessions, err := c.Sessions.Recent(context.Background(), tool, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tg: %v\n", err)
		return 1
	}
	for _, s := range sessions {
		fmt.Printf("%s\t%s\t%s\n", s.ID, strings.Join(s.Command, " "), s.Cwd)
	}
	return 0
}

func cmdRestart(home *paths.Bundle, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "tg: restart requires <id>")
		return 1
	}
	c, err := newClient(home, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ref := ""
	if len(args) > 1 {
		ref = args[1]
	}
	if err := c.Sessions.Restart(context.Background(), args[0], ref); err != nil {
		fmt.Fprintf(os.Stderr, "tg: %v\n", err)
		return 1
	}
	return 0
}

func cmdSend(home *paths.Bundle, args []string) int {
	return sendOrWrite(home, args, true)
}

func cmdWrite(home *paths.Bundle, args []string) int {
	return sendOrWrite(home, args, false)
}

func sendOrWrite(home *paths.Bundle, args []string, toChat bool) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "tg: requires <id> <text|--file PATH [caption]>")
		return 1
	}
	c, err := newClient(home, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	id := args[0]
	ctx := context.Background()
	if args[1] == "--file" {
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "tg: --file requires a path")
			return 1
		}
		caption := ""
		if len(args) > 3 {
			caption = strings.Join(args[3:], " ")
		}
		if err := c.Remote.SendFile(ctx, id, args[2], caption); err != nil {
			fmt.Fprintf(os.Stderr, "tg: %v\n", err)
			return 1
		}
		return 0
	}
	text := strings.Join(args[1:], " ")
	var sendErr error
	if toChat {
		sendErr = c.Remote.SendMessage(ctx, id, text)
	} else {
		sendErr = c.Remote.SendInput(ctx, id, text)
	}
	if sendErr != nil {
		fmt.Fprintf(os.Stderr, "tg: %v\n", sendErr)
		return 1
	}
	return 0
}

func cmdPair(home *paths.Bundle) int {
	c, err := newClient(home, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	code, expires, err := c.GenerateCode(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "tg: %v\n", err)
		return 1
	}
	fmt.Printf("Pairing code: %s (expires in %ds)\n", code, expires)
	return 0
}

func cmdSetup(home *paths.Bundle, args []string) int {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	telegram := fs.String("telegram", "", "Telegram bot token")
	slack := fs.String("slack", "", "Slack bot token")
	slackApp := fs.String("slack-app-token", "", "Slack app-level token")
	channelName := fs.String("channel", "telegram", "channel name to configure")
	listChannels := fs.Bool("list-channels", false, "list configured channels")
	show := fs.Bool("show", false, "check the config and print the preflight result")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.NewLoader().LoadWithDefaults(home.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tg: %v\n", err)
		return 1
	}

	if *listChannels {
		for name := range cfg.Channels {
			fmt.Println(name)
		}
		return 0
	}
	if *show {
		result := config.Preflight(cfg)
		fmt.Println(result.Message)
		if !result.OK {
			return 1
		}
		return 0
	}

	changed := false
	if *telegram != "" {
		ch := cfg.Channels[*channelName]
		if ch == nil {
			ch = &config.Channel{Type: "telegram"}
			cfg.Channels[*channelName] = ch
		}
		ch.Type = "telegram"
		ch.Credentials.BotToken = *telegram
		changed = true
	}
	if *slack != "" {
		ch := cfg.Channels[*channelName]
		if ch == nil {
			ch = &config.Channel{Type: "slack"}
			cfg.Channels[*channelName] = ch
		}
		ch.Type = "slack"
		ch.Credentials.BotToken = *slack
		ch.Credentials.AppToken = *slackApp
		changed = true
	}
	if !changed {
		printUsage()
		return 1
	}

	if err := home.EnsureDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "tg: %v\n", err)
		return 1
	}
	if err := config.NewLoader().Save(home.ConfigFile, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "tg: %v\n", err)
		return 1
	}
	fmt.Printf("Saved %s\n", home.ConfigFile)
	return 0
}

func tailLogFile(path string, n int, follow bool) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tg: %v\n", err)
		return 1
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if n > 0 && n < len(lines) {
		lines = lines[len(lines)-n:]
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	if follow {
		return followLogFile(path)
	}
	return 0
}

// followLogFile polls path for new bytes every 500ms, like `tail -f`; a
// real terminal session Ctrl-Cs out of this rather than it ever
// returning on its own.
func followLogFile(path string) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tg: %v\n", err)
		return 1
	}
	defer f.Close()
	f.Seek(0, 2)
	buf := make([]byte, 4096)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			os.Stdout.Write(buf[:n])
		}
		if err != nil {
			time.Sleep(500 * time.Millisecond)
		}
	}
}
