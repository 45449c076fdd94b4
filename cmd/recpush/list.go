package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/raoulx24/recpush/internal/logging"
	"github.com/raoulx24/recpush/internal/retention"
	"github.com/raoulx24/recpush/internal/slot"
	"github.com/raoulx24/recpush/internal/storage"
)

// listRecordings prints the inventory under root. It never writes to storage.
func listRecordings(w io.Writer, root string, layout slot.Layout) error {
	fs, err := storage.Existing(root)
	if err != nil {
		return err
	}
	counters, err := slot.ReadCounters(fs)
	if err != nil {
		return err
	}
	entries, err := retention.New(fs, layout, counters, logging.Nop()).Inventory()
	if err != nil {
		return err
	}
	renderInventory(w, entries, counters.First(), counters.Next())
	return nil
}

// renderInventory prints one row per recording still on storage.
func renderInventory(w io.Writer, entries []retention.Entry, first, next uint64) {
	fmt.Fprintf(w, "first_recording=%d next_recording=%d\n", first, next)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Slot", "Directory", "Channels", "Bytes"})
	for _, e := range entries {
		table.Append([]string{
			strconv.FormatUint(e.ID, 10),
			e.Dir,
			strconv.Itoa(e.Files),
			strconv.FormatInt(e.Bytes, 10),
		})
	}
	table.Render()
}
