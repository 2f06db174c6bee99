package cli

import (
	"errors"
	"fmt"

	"github.com/plotcraft/backend-go/internal/kafka"
	"github.com/spf13/cobra"
)

var errQueueDisabled = errors.New("queued indexing is disabled; set kafka.enabled or KAFKA_BROKERS")

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume queued index events",
	Long: `Runs the index worker: reads entity change events from Kafka, reloads
each entity and updates its vector document. Stops on interrupt.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if app == nil || !app.Config.Kafka.Enabled {
			return errQueueDisabled
		}
		if app.Worker == nil {
			return errNoDatabase
		}
		consumer, err := kafka.NewConsumer(app.Config.Kafka, app.Worker.Handle, app.Logger.Named("kafka"))
		if err != nil {
			return fmt.Errorf("worker failed: %w", err)
		}
		defer consumer.Close()

		cmd.Println("Index worker running; press Ctrl+C to stop")
		return consumer.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
