package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"receiptscan/pkg/history"
	"receiptscan/process/report"
)

func main() {
	ledgerPath := flag.String("ledger", "receiptscan.ledger", "ledger file")
	owner := flag.Int64("owner", 1, "owner to report for")
	since := flag.String("since", "", "only entries scanned on or after this day (YYYY-MM-DD)")
	list := flag.Bool("list", false, "list matching rows")
	flag.Parse()

	var from time.Time
	if *since != "" {
		t, err := time.Parse("2006-01-02", *since)
		if err != nil {
			log.Fatalf("invalid -since, expected YYYY-MM-DD: %v", err)
		}
		from = t
	}
	l, err := history.OpenLedger(*ledgerPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer l.Close()
	if _, err := report.Run(context.Background(), os.Stdout, l, *owner, from, *list); err != nil {
		log.Fatalf("report: %v", err)
	}
}
