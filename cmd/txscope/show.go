package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"txScope/internal/addressbook"
	"txScope/internal/config"
	"txScope/internal/display"
	"txScope/internal/model"
	"txScope/internal/storage"
)

func runShow(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadShow(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}

	var book *addressbook.Book
	if cfg.AddressBook != "" {
		book, err = addressbook.Load(cfg.AddressBook)
		if err != nil {
			return err
		}
		logger.Debug("address book loaded", zap.Any("counts", book.Counts()))
	}

	records, err := storage.ReadRecords(cfg.In, func(number int, err error) {
		logger.Warn("skip unreadable record", zap.Int("line", number), zap.Error(err))
	})
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].BlockHeight > records[j].BlockHeight })

	var query *gojq.Code
	if cfg.JQ != "" {
		query, err = compileQuery(cfg.JQ)
		if err != nil {
			return err
		}
	}

	return render(cmd.OutOrStdout(), records, query, display.Formatter{Book: book}, cfg.Limit)
}

func compileQuery(expr string) (*gojq.Code, error) {
	parsed, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse jq: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("compile jq: %w", err)
	}
	return code, nil
}

// render prints a table of records. With a query, a record is kept when the query
// yields true; non-boolean results are printed as JSON lines instead of rows.
func render(w io.Writer, records []model.TransactionRecord, query *gojq.Code, f display.Formatter, limit int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HEIGHT\tTIME\tTYPE\tHASH\tTOKENS\tBUYER\tSELLER\tPRICE\tFEES")

	rows := 0
	for _, rec := range records {
		if limit > 0 && rows >= limit {
			break
		}
		if query != nil {
			keep, err := evaluate(w, query, rec)
			if err != nil {
				return err
			}
			if !keep {
				continue
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			rec.BlockHeight,
			shortTime(rec.Timestamp),
			display.EventType(rec.EventType),
			display.ShortHash(rec.TxHash),
			rec.NFT.Count,
			f.Address(rec.Buyer.Address),
			f.Address(rec.Seller.Address),
			f.Amount(rec.Price.Formatted),
			valueOr(rec.Fees.Formatted),
		)
		rows++
	}
	if rows == 0 && query != nil {
		return nil
	}
	return tw.Flush()
}

func evaluate(w io.Writer, query *gojq.Code, rec model.TransactionRecord) (bool, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return false, err
	}

	keep := false
	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		switch v := v.(type) {
		case error:
			return false, fmt.Errorf("jq %s: %w", rec.TxHash, v)
		case bool:
			keep = keep || v
		case nil:
		default:
			out, err := json.Marshal(v)
			if err != nil {
				return false, err
			}
			fmt.Fprintln(w, string(out))
		}
	}
	return keep, nil
}

func shortTime(ts string) string {
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return parsed.UTC().Format("2006-01-02 15:04")
}

func valueOr(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
