package main

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	config := viper.New()
	config.SetEnvPrefix("LOGCTL")
	config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	config.AutomaticEnv()

	ctx := context.Background()
	rootCmd := &cobra.Command{
		Use: "logctl",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			config.BindPFlags(cmd.Flags())
			config.BindPFlags(cmd.PersistentFlags())
		},
	}
	rootCmd.AddCommand(Produce(ctx, config))
	rootCmd.AddCommand(Consume(ctx, config))
	rootCmd.AddCommand(Tail(ctx, config))
	rootCmd.AddCommand(List(ctx, config))
	rootCmd.AddCommand(Bench(ctx, config))
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Increase log verbosity.")
	rootCmd.PersistentFlags().String("host", "127.0.0.1:8400", "Remote gRPC endpoint.")
	rootCmd.PersistentFlags().Duration("timeout", 5*time.Second, "Dial timeout.")
	rootCmd.Execute()
}

func getLogger(config *viper.Viper) *zap.Logger {
	var logger *zap.Logger
	var err error
	if config.GetBool("debug") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func mustDial(ctx context.Context, config *viper.Viper) (*grpc.ClientConn, *zap.Logger) {
	logger := getLogger(config)
	host := config.GetString("host")
	dialCtx, cancel := context.WithTimeout(ctx, config.GetDuration("timeout"))
	defer cancel()
	conn, err := grpc.DialContext(dialCtx, host,
		grpc.WithInsecure(),
		grpc.WithBlock(),
	)
	if err != nil {
		logger.Fatal("failed to dial server",
			zap.String("host", host),
			zap.Error(err))
	}
	return conn, logger
}

func getTable(headers []string, out io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(headers)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	return table
}
