// cmd/nagctl/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"nagwatch/internal/command"
	"nagwatch/internal/config"
	"nagwatch/internal/database"
	"nagwatch/internal/nagios"
	"nagwatch/internal/status"
)

const usage = `usage: nagctl [flags] <command> [args]

commands:
  info                  print the info block
  program               print the programstatus block
  host NAME             print one host and its services
  services HOST         print the services of a host
  hosts PATTERN         print hosts whose name matches the regexp
  submit NAME PARAM...  write one external command
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "nagctl: %v\n", err)
		}
		os.Exit(1)
	}
}

type options struct {
	statusFile  string
	commandFile string
	journal     string
	skipUnknown bool
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("nagctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage, "\nflags:\n")
		fs.PrintDefaults()
	}

	configFile := fs.String("config", "", "nagwatch configuration file; its nagios and database sections are used")
	opts := options{}
	fs.StringVar(&opts.statusFile, "status", "/usr/local/nagios/var/status.dat", "status file")
	fs.StringVar(&opts.commandFile, "cmd", "/usr/local/nagios/var/rw/nagios.cmd", "external command file")
	fs.StringVar(&opts.journal, "journal", "", "record submitted commands in this journal database")
	fs.BoolVar(&opts.skipUnknown, "skip-unknown", false, "skip blocks of unknown type")
	verbose := fs.Bool("verbose", false, "log client activity")

	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if *configFile != "" {
		cfg, err := config.Load(*configFile)
		if err != nil {
			return err
		}
		set := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

		// flags given on the command line win over the file
		if !set["status"] {
			opts.statusFile = cfg.Nagios.StatusFile
		}
		if !set["cmd"] {
			opts.commandFile = cfg.Nagios.CommandFile
		}
		if !set["skip-unknown"] {
			opts.skipUnknown = cfg.Nagios.SkipUnknownBlocks
		}
		if !set["journal"] {
			opts.journal = cfg.Database.Path
		}
	}

	logrus.SetOutput(stderr)
	logrus.SetLevel(logrus.WarnLevel)
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errUsage
	}

	clientOpts := []nagios.Option{nagios.WithLogger(logrus.WithField("component", "nagctl"))}
	if opts.skipUnknown {
		clientOpts = append(clientOpts, nagios.WithReaderOptions(status.WithSkipUnknownBlocks()))
	}
	client := nagios.New(nagios.FileSource(opts.statusFile), nagios.FileSink(opts.commandFile), 0, clientOpts...)

	name, params := rest[0], rest[1:]
	switch name {
	case "info", "program":
		if len(params) != 0 {
			fs.Usage()
			return errUsage
		}
		var block map[string]string
		var err error
		if name == "info" {
			block, err = client.Info()
		} else {
			block, err = client.Program()
		}
		if err != nil {
			return err
		}
		return printYAML(stdout, block)

	case "host":
		if len(params) != 1 {
			fs.Usage()
			return errUsage
		}
		snap, err := client.Snapshot()
		if err != nil {
			return err
		}
		host, ok := snap.Host(params[0])
		if !ok {
			return fmt.Errorf("host %q not found", params[0])
		}
		return printYAML(stdout, struct {
			Host     status.Host      `yaml:"host"`
			Services []status.Service `yaml:"services"`
		}{host, snap.Services(params[0])})

	case "services":
		if len(params) != 1 {
			fs.Usage()
			return errUsage
		}
		services, err := client.Services(params[0])
		if err != nil {
			return err
		}
		return printYAML(stdout, services)

	case "hosts":
		if len(params) != 1 {
			fs.Usage()
			return errUsage
		}
		re, err := regexp.Compile(params[0])
		if err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
		hosts, err := client.HostsMatching(re)
		if err != nil {
			return err
		}
		return printYAML(stdout, hosts)

	case "submit":
		if len(params) == 0 {
			fs.Usage()
			return errUsage
		}
		return submit(client, opts.journal, params[0], params[1:], stdout)
	}

	fs.Usage()
	return errUsage
}

func submit(client *nagios.Client, journal, name string, params []string, stdout io.Writer) error {
	cmd, err := command.Parse(name, params)
	if err != nil {
		return err
	}

	cmds := []command.Command{cmd}
	at, submitErr := client.SubmitCommands(cmds)
	records := database.RecordsFor(cmds, at, submitErr)

	if journal != "" {
		store, err := database.NewBoltStore(journal)
		if err != nil {
			logrus.WithError(err).Warn("Journal unavailable, command not recorded")
		} else {
			if err := store.RecordCommands(context.Background(), records); err != nil {
				logrus.WithError(err).Warn("Failed to journal command")
			}
			store.Close()
		}
	}

	if submitErr != nil {
		return submitErr
	}
	return printYAML(stdout, records)
}

func printYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}
