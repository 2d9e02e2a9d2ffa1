package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/solsim/internal/events"
	"github.com/san-kum/solsim/internal/journal"
	"github.com/san-kum/solsim/internal/server"
	"github.com/san-kum/solsim/internal/sim"
)

var (
	listenAddr string
	consulAddr string
	heartbeat  time.Duration

	eventLimit  int
	eventKind   string
	eventCounts bool
	eventFollow bool
)

func serveCommands() []*cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the simulation behind an HTTP and websocket API",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().StringVar(&consulAddr, "consul", "", "consul agent address (overrides server.consul_addr)")
	serveCmd.Flags().DurationVar(&heartbeat, "heartbeat", 2*time.Second, "consul TTL heartbeat interval")

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "show journaled events, or follow them live over redis",
		Args:  cobra.NoArgs,
		RunE:  showEvents,
	}
	eventsCmd.Flags().IntVar(&eventLimit, "limit", 20, "number of events to show")
	eventsCmd.Flags().StringVar(&eventKind, "kind", "", "only show events of this kind")
	eventsCmd.Flags().BoolVar(&eventCounts, "counts", false, "tally events per kind")
	eventsCmd.Flags().BoolVar(&eventFollow, "follow", false, "subscribe to the redis channel")

	return []*cobra.Command{serveCmd, eventsCmd}
}

func serve(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	cfg := e.cfg
	if listenAddr != "" {
		cfg.Server.Addr = listenAddr
	}
	if consulAddr != "" {
		cfg.Server.ConsulAddr = consulAddr
	}

	s, err := e.newSimulation()
	if err != nil {
		return err
	}
	srv := server.New(s, e.statePath(), e.log)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if cfg.Server.ConsulAddr != "" {
		reg, err := server.NewRegistry(cfg.Server.ConsulAddr, e.log)
		if err != nil {
			return err
		}
		if err := reg.Register(ctx, cfg.Server.ServiceID, cfg.Server.ServiceName, advertised(cfg.Server.Addr)); err != nil {
			return err
		}
		defer func() {
			dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer dcancel()
			if err := reg.Deregister(dctx, cfg.Server.ServiceID); err != nil {
				e.log.Warn("deregister failed", "error", err)
			}
		}()
		go reg.Heartbeat(ctx, cfg.Server.ServiceID, heartbeat)
	}

	loopErr := make(chan error, 1)
	go func() {
		err := srv.Loop(ctx, cfg.Sim.FPS)
		if err != nil && !errors.Is(err, context.Canceled) {
			e.log.Error("simulation loop stopped", "error", err)
		}
		cancel()
		loopErr <- err
	}()

	fmt.Printf("serving on %s\n", cfg.Server.Addr)
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		cancel()
		<-loopErr
		return err
	}
	if err := <-loopErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// advertised turns a listen address such as ":8080" into one other hosts
// can reach.
func advertised(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		if h, err := os.Hostname(); err == nil {
			host = h
		} else {
			host = "localhost"
		}
	}
	return net.JoinHostPort(host, port)
}

func showEvents(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if eventFollow {
		client, err := events.Connect(cmd.Context(), e.cfg.Events)
		if err != nil {
			return err
		}
		defer client.Close()

		fmt.Printf("following %s (ctrl+c to stop)\n", e.cfg.Events.Channel)
		return events.Follow(cmd.Context(), client, e.cfg.Events.Channel, func(ev sim.Event) {
			if eventKind != "" && string(ev.Kind) != eventKind {
				return
			}
			fmt.Printf("[%6d] %-20s %s\n", ev.Tick, ev.Kind, ev.Message())
		})
	}

	j := e.journal
	if j == nil {
		j, err = journal.Open(e.journalPath(), e.log.Named("journal"))
		if err != nil {
			return err
		}
		defer j.Close()
	}

	if eventCounts {
		counts, err := j.Counts()
		if err != nil {
			return err
		}
		kinds := make([]string, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tCOUNT")
		for _, k := range kinds {
			fmt.Fprintf(w, "%s\t%d\n", k, counts[sim.EventKind(k)])
		}
		return w.Flush()
	}

	entries, err := j.Recent(eventLimit, sim.EventKind(eventKind))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no events recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSESSION\tTICK\tKIND\tMESSAGE")
	for _, en := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			en.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			en.Session,
			en.Event.Tick,
			en.Event.Kind,
			en.Event.Message(),
		)
	}
	return w.Flush()
}
