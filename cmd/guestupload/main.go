package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shyamsivadas/event-lens/pkg/capture"
	"github.com/shyamsivadas/event-lens/pkg/deviceid"
	"github.com/shyamsivadas/event-lens/pkg/guestclient"
	"github.com/shyamsivadas/event-lens/pkg/imageprep"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "guestupload",
		Short:         "Contribute photos to an event as a guest",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to YAML config")
	flags.String("server", "", "event server base url")
	flags.String("token", "", "event share token")
	flags.String("device", "", "device id override (derived from this machine when empty)")
	flags.Duration("timeout", 0, "per-request timeout")
	flags.Int("retries", 0, "retries for transient failures")
	flags.Int("concurrency", 0, "photos uploaded in parallel")

	load := func(cmd *cobra.Command) (config, guestclient.Client, error) {
		cfg, err := loadConfig(configPath, cmd.Flags())
		if err != nil {
			return config{}, guestclient.Client{}, err
		}
		return cfg, guestclient.Client{BaseURL: cfg.Server, Timeout: cfg.Timeout, Retries: cfg.Retries}, nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "event",
		Short: "Show the event behind the share token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, client, err := load(cmd)
			if err != nil {
				return err
			}
			event, err := client.ResolveEvent(cmd.Context(), cfg.Token)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) filter=%s max_photos_per_guest=%d\n", event.Name, event.EventID, event.FilterType, event.MaxPhotosPerGuest)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "limit",
		Short: "Show this device's photo allotment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, client, err := load(cmd)
			if err != nil {
				return err
			}
			quota, err := client.Limit(cmd.Context(), cfg.Token, deviceid.Resolve(cfg.Device))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "used=%d max=%d remaining=%d\n", quota.Used, quota.Max, quota.Remaining)
			return nil
		},
	})

	var notes []string
	var raw bool
	var passes int
	upload := &cobra.Command{
		Use:   "upload <files...>",
		Short: "Upload photos within the device quota",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, files []string) error {
			cfg, client, err := load(cmd)
			if err != nil {
				return err
			}
			noteByIndex, err := parseNotes(notes)
			if err != nil {
				return err
			}
			return runUpload(cmd, cfg, client, files, noteByIndex, !raw, passes)
		},
	}
	upload.Flags().StringArrayVar(&notes, "note", nil, "note for the i-th file, as i=text (1-based)")
	upload.Flags().BoolVar(&raw, "raw", false, "upload files as-is without resizing or filtering")
	upload.Flags().IntVar(&passes, "passes", 2, "upload passes for photos that failed transiently")
	root.AddCommand(upload)

	return root
}

func runUpload(cmd *cobra.Command, cfg config, api capture.API, files []string, notes map[int]string, prepare bool, passes int) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	session := capture.NewSession(api, cfg.Token, deviceid.Resolve(cfg.Device), capture.Options{Concurrency: cfg.Concurrency})
	if err := session.Init(ctx); err != nil {
		if errors.Is(err, guestclient.ErrEventNotFound) {
			return fmt.Errorf("event link is invalid or expired")
		}
		return err
	}
	if session.State() == capture.StateLimitReached {
		fmt.Fprintln(out, "This device already reached its photo limit for the event.")
		return nil
	}
	filter := imageprep.FilterFor(session.Event().FilterType)

	// notes are keyed by 1-based file position
	noted := map[int]bool{}
	total, uploaded := 0, 0
	next := 0
	for next < len(files) && session.Capacity() > 0 {
		added := map[int]string{}
		for ; next < len(files) && session.Capacity() > 0; next++ {
			path := files[next]
			filename, contentType, data, err := readPhoto(path, filter, prepare)
			if err != nil {
				fmt.Fprintf(out, "skipping %s: %v\n", path, err)
				continue
			}
			item, err := session.Add(filename, contentType, data, capture.OriginGallery)
			if err != nil {
				fmt.Fprintf(out, "skipping %s: %v\n", path, err)
				continue
			}
			added[next+1] = item.ID
		}
		if len(added) == 0 {
			break
		}
		if err := applyNotes(session, added, notes); err != nil {
			return err
		}
		for index := range added {
			noted[index] = true
		}
		total += len(added)

		n, err := uploadPasses(ctx, out, session, passes)
		uploaded += n
		if err != nil {
			return err
		}
		if session.State() != capture.StateSelecting || len(session.Pending()) > 0 {
			break
		}
	}
	if total == 0 {
		return fmt.Errorf("no photos to upload")
	}

	reason := "photo limit reached"
	if len(session.Pending()) > 0 {
		reason = "earlier photos did not upload"
	}
	for ; next < len(files); next++ {
		fmt.Fprintf(out, "not uploaded %s: %s\n", files[next], reason)
	}
	for _, index := range slices.Sorted(maps.Keys(notes)) {
		if noted[index] {
			continue
		}
		if index > len(files) {
			fmt.Fprintf(out, "note %d ignored: no file at that position\n", index)
			continue
		}
		fmt.Fprintf(out, "note %d ignored: %s was not uploaded\n", index, files[index-1])
	}

	quota := session.Quota()
	fmt.Fprintf(out, "%d of %d uploaded (used=%d max=%d remaining=%d)\n", uploaded, total, quota.Used, quota.Max, quota.Remaining)
	if session.State() == capture.StateDone {
		fmt.Fprintln(out, "Photo limit reached. Thank you!")
	}
	return nil
}

func applyNotes(session *capture.Session, added map[int]string, notes map[int]string) error {
	var found bool
	for index := range added {
		if _, ok := notes[index]; ok {
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	if err := session.Review(); err != nil {
		return err
	}
	for index, id := range added {
		note, ok := notes[index]
		if !ok {
			continue
		}
		if err := session.SetNote(id, note); err != nil {
			return fmt.Errorf("note %d: %w", index, err)
		}
	}
	return nil
}

func uploadPasses(ctx context.Context, out io.Writer, session *capture.Session, passes int) (int, error) {
	uploaded := 0
	for pass := 0; pass < max(1, passes); pass++ {
		result, err := session.Upload(ctx)
		if err != nil {
			return uploaded, err
		}
		uploaded += len(result.Succeeded)
		for _, failed := range result.Failed {
			fmt.Fprintf(out, "failed %s at %s: %v\n", failed.Filename, failed.Step, failed.Err)
		}
		if !retryable(result) || session.State() != capture.StateSelecting {
			break
		}
	}
	return uploaded, nil
}

func retryable(result capture.BatchResult) bool {
	for _, failed := range result.Failed {
		if failed.Kind == capture.FailureTransient || failed.Kind == capture.FailureObjectNotFound {
			return true
		}
	}
	return false
}

func readPhoto(path string, filter imageprep.Filter, prepare bool) (string, string, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", nil, err
	}
	filename := filepath.Base(path)
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !prepare {
		return filename, contentType, data, nil
	}

	prepared, err := imageprep.Prepare(bytes.NewReader(data), filter)
	if errors.Is(err, imageprep.ErrUnsupportedFormat) {
		return filename, contentType, data, nil
	}
	if err != nil {
		return "", "", nil, err
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg", imageprep.ContentType, prepared, nil
}

func parseNotes(values []string) (map[int]string, error) {
	out := make(map[int]string, len(values))
	for _, value := range values {
		index, note, ok := strings.Cut(value, "=")
		if !ok {
			return nil, fmt.Errorf("invalid note %q, expected i=text", value)
		}
		n, err := strconv.Atoi(strings.TrimSpace(index))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid note index %q", index)
		}
		out[n] = note
	}
	return out, nil
}
