package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fatflowers/payport/internal/app/service/transaction"
)

func syncCmd() *cobra.Command {
	var tid string
	cmd := &cobra.Command{
		Use:   "sync [orderNo]",
		Short: "Fetch the transaction details of an order and reconcile it",
		Long: `Fetches the current transaction state from the gateway and applies it to the order.
Orders that never recorded a transaction (for example after a lost return) need --tid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var mgr transaction.TransactionManager
			return withServices(cmd.Context(), func(ctx context.Context) error {
				res, err := mgr.Sync(ctx, &transaction.SyncRequest{OrderNo: args[0], TID: tid})
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			}, &mgr)
		},
	}

	cmd.Flags().StringVar(&tid, "tid", "", "Transaction id for orders without a recorded transaction")

	return cmd
}

func merchantDetailsCmd() *cobra.Command {
	var signature, lang string
	cmd := &cobra.Command{
		Use:   "merchant-details",
		Short: "Check the merchant credentials against the gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mgr transaction.TransactionManager
			return withServices(cmd.Context(), func(ctx context.Context) error {
				res, err := mgr.MerchantDetails(ctx, &transaction.MerchantDetailsRequest{Signature: signature, Lang: lang})
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			}, &mgr)
		},
	}

	cmd.Flags().StringVarP(&signature, "signature", "s", "", "Product activation key (defaults to the configured one)")
	cmd.Flags().StringVar(&lang, "lang", "", "Language of the status texts")

	return cmd
}
