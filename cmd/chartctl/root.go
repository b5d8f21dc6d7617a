package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/timestamppb"

	pb "github.com/godilite/insights-server/api/v1"
	"github.com/godilite/insights-server/internal/app"
	"github.com/godilite/insights-server/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	addr     string
	local    bool
	fixtures string
	timeout  time.Duration
	format   string

	student string
	from    string
	to      string
	search  string
	sortBy  string
	width   int32
	height  int32
}

func (g *globalFlags) filter() (*pb.ChartFilter, error) {
	f := &pb.ChartFilter{StudentID: g.student, Search: g.search}
	var err error
	if f.From, err = parseDate("from", g.from); err != nil {
		return nil, err
	}
	if f.To, err = parseDate("to", g.to); err != nil {
		return nil, err
	}
	return f, nil
}

// parseDate accepts RFC 3339 or a bare YYYY-MM-DD (UTC midnight).
func parseDate(name, s string) (*timestamppb.Timestamp, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return timestamppb.New(t), nil
		}
	}
	return nil, fmt.Errorf("--%s: %q is not a date (want YYYY-MM-DD or RFC 3339)", name, s)
}

func (g *globalFlags) chartRequest(id string) (*pb.ChartRequest, error) {
	f, err := g.filter()
	if err != nil {
		return nil, err
	}
	return &pb.ChartRequest{
		ChartID:  id,
		Filter:   f,
		SortBy:   g.sortBy,
		Viewport: pb.Viewport{Width: g.width, Height: g.height},
	}, nil
}

// session is an open client plus whatever must be torn down afterwards.
type session struct {
	client pb.InsightsServiceClient
	close  func()
}

// connect dials the remote server, or with --local boots an in-process
// server on a loopback port backed by an in-memory database.
func (g *globalFlags) connect(ctx context.Context) (*session, error) {
	addr := g.addr
	var shutdown func()

	if g.local {
		lis, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, err
		}
		cfg := &config.Config{
			AppEnv:       "local",
			DBDriver:     "sqlite3",
			DBPath:       ":memory:",
			CacheTTL:     time.Minute,
			FixturesPath: g.fixtures,
		}
		a, err := app.NewApp(ctx, cfg, zap.NewNop(), app.WithListener(lis))
		if err != nil {
			_ = lis.Close()
			return nil, err
		}
		a.Start()
		addr = lis.Addr().String()
		shutdown = func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = a.Shutdown(sctx)
		}
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		if shutdown != nil {
			shutdown()
		}
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	return &session{
		client: pb.NewInsightsServiceClient(conn),
		close: func() {
			conn.Close()
			if shutdown != nil {
				shutdown()
			}
		},
	}, nil
}

// run opens a session, applies the timeout and hands the client to fn.
func (g *globalFlags) run(cmd *cobra.Command, fn func(ctx context.Context, c pb.InsightsServiceClient) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
	defer cancel()

	s, err := g.connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	return fn(ctx, s.client)
}

// emit writes v as indented JSON when --format=json, otherwise calls text.
func (g *globalFlags) emit(w io.Writer, v any, text func() string) error {
	if g.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text())
	return err
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "chartctl",
		Short:         "Inspect dashboard charts served by insights-server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.format != "text" && g.format != "json" {
				return fmt.Errorf("--format must be text or json, got %q", g.format)
			}
			if g.timeout <= 0 {
				return fmt.Errorf("--timeout must be positive")
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.addr, "addr", "localhost:50051", "insights server address")
	pf.BoolVar(&g.local, "local", false, "serve fixtures in-process instead of dialing --addr")
	pf.StringVar(&g.fixtures, "fixtures", "", "fixture file for --local (default: embedded set)")
	pf.DurationVar(&g.timeout, "timeout", 10*time.Second, "request timeout")
	pf.StringVar(&g.format, "format", "text", "output format: text or json")
	pf.StringVar(&g.student, "student", "", "only points recorded for this student id")
	pf.StringVar(&g.from, "from", "", "earliest recorded_at (YYYY-MM-DD or RFC 3339)")
	pf.StringVar(&g.to, "to", "", "latest recorded_at (YYYY-MM-DD or RFC 3339)")
	pf.StringVar(&g.search, "search", "", "case-insensitive label filter")
	pf.StringVar(&g.sortBy, "sort", "", "position, value_asc, value_desc or label")
	pf.Int32Var(&g.width, "width", 0, "viewport width in pixels")
	pf.Int32Var(&g.height, "height", 0, "viewport height in pixels")

	root.AddCommand(
		newPieCmd(g),
		newBarCmd(g),
		newLineCmd(g),
		newCompareCmd(g),
		newDashboardCmd(g),
		newSVGCmd(g),
	)
	return root
}
