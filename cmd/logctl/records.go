package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	api "github.com/andrwkng/recordlog/api/v1"
)

func Produce(ctx context.Context, config *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "produce [value ...]",
		Short: "Append records to the log and print their offsets. Reads stdin lines when no values are given.",
		Run: func(cmd *cobra.Command, args []string) {
			conn, l := mustDial(ctx, config)
			defer conn.Close()

			values := args
			if len(values) == 0 {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					values = append(values, scanner.Text())
				}
				if err := scanner.Err(); err != nil {
					l.Fatal("failed to read records",
						zap.Error(errors.Wrap(err, "failed to read stdin")))
				}
			}

			stream, err := api.NewLogClient(conn).ProduceStream(ctx)
			if err != nil {
				l.Fatal("failed to start produce stream", zap.Error(err))
			}
			for _, value := range values {
				err = stream.Send(&api.ProduceRequest{
					Record: &api.Record{Value: []byte(value)},
				})
				if err != nil {
					l.Fatal("failed to send record", zap.Error(err))
				}
				res, err := stream.Recv()
				if err != nil {
					l.Fatal("failed to produce record", zap.Error(err))
				}
				fmt.Println(res.Offset)
			}
			stream.CloseSend()
		},
	}
}

func Consume(ctx context.Context, config *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "consume <offset>",
		Short: "Read the record at an offset and print its value.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			conn, l := mustDial(ctx, config)
			defer conn.Close()
			offset, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				l.Fatal("invalid offset specified", zap.Error(err))
			}
			res, err := api.NewLogClient(conn).Consume(ctx, &api.ConsumeRequest{
				Offset: offset,
			})
			if err != nil {
				l.Fatal("failed to consume record", zap.Error(err))
			}
			fmt.Println(string(res.Record.Value))
		},
	}
}

func Tail(ctx context.Context, config *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Stream records as they are appended, until interrupted.",
		Run: func(cmd *cobra.Command, _ []string) {
			conn, l := mustDial(ctx, config)
			defer conn.Close()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			go func() {
				sigc := make(chan os.Signal, 1)
				signal.Notify(sigc,
					syscall.SIGINT,
					syscall.SIGTERM,
					syscall.SIGQUIT)
				<-sigc
				cancel()
			}()
			stream, err := api.NewLogClient(conn).ConsumeStream(ctx, &api.ConsumeRequest{
				Offset: config.GetUint64("offset"),
			})
			if err != nil {
				l.Fatal("failed to start consume stream", zap.Error(err))
			}
			for {
				res, err := stream.Recv()
				if err != nil {
					if ctx.Err() == context.Canceled {
						return
					}
					l.Fatal("failed to receive record", zap.Error(err))
				}
				fmt.Printf("%d\t%s\n", res.Record.Offset, string(res.Record.Value))
			}
		},
	}
	cmd.Flags().Uint64("offset", 0, "Offset to start reading from.")
	return cmd
}

func List(ctx context.Context, config *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List a range of records.",
		Run: func(cmd *cobra.Command, _ []string) {
			conn, l := mustDial(ctx, config)
			defer conn.Close()
			client := api.NewLogClient(conn)
			table := getTable([]string{"Offset", "Size", "Value"}, cmd.OutOrStdout())
			offset := config.GetUint64("offset")
			for i := 0; i < config.GetInt("count"); i++ {
				res, err := client.Consume(ctx, &api.ConsumeRequest{
					Offset: offset,
				})
				if err != nil {
					if status.Code(err) == codes.NotFound {
						break
					}
					l.Fatal("failed to consume record", zap.Error(err))
				}
				table.Append([]string{
					fmt.Sprintf("%d", res.Record.Offset),
					humanize.Bytes(uint64(len(res.Record.Value))),
					string(res.Record.Value),
				})
				offset = res.Record.Offset + 1
			}
			table.Render()
		},
	}
	cmd.Flags().Uint64("offset", 0, "Offset to start listing from.")
	cmd.Flags().Int("count", 20, "Maximum number of records to list.")
	return cmd
}

func Bench(ctx context.Context, config *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Produce records in a loop and report the rate, until interrupted.",
		Run: func(cmd *cobra.Command, _ []string) {
			conn, l := mustDial(ctx, config)
			defer conn.Close()
			client := api.NewLogClient(conn)
			count := 0
			ctx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})
			start := time.Now()
			go func() {
				sigc := make(chan os.Signal, 1)
				signal.Notify(sigc,
					syscall.SIGINT,
					syscall.SIGTERM,
					syscall.SIGQUIT)
				<-sigc
				fmt.Println()
				cancel()
			}()
			go func() {
				defer close(done)
				for {
					_, err := client.Produce(ctx, &api.ProduceRequest{
						Record: &api.Record{Value: []byte("test")},
					})
					if err != nil {
						if ctx.Err() == context.Canceled {
							return
						}
						l.Fatal("failed to produce record", zap.Error(err))
					}
					count++
				}
			}()
			<-done
			elapsed := time.Since(start)
			rate := float64(count) / elapsed.Seconds()
			fmt.Printf("Benchmark done: %d records in %s\n", count, elapsed.String())
			fmt.Printf("Rate is %.0f records/s\n", rate)
		},
	}
}
