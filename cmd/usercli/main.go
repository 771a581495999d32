// Package main provides the user CLI for driving a moodbox server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/moodbox/internal/api/connect"
	moodboxv1 "github.com/osa030/moodbox/internal/api/moodboxv1"
	"github.com/osa030/moodbox/internal/api/moodboxv1/moodboxv1connect"
)

var (
	app    = kingpin.New("moodbox-usercli", "moodbox user client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "API token").Envar("MOODBOX_API_TOKEN").String()

	// playlists command
	playlistsCmd = app.Command("playlists", "List your playlists")

	// open command
	openCmd      = app.Command("open", "Open a playlist")
	openPlaylist = openCmd.Arg("playlist-id", "Spotify playlist ID or URL").Required().String()
	openSort     = openCmd.Flag("sort", "Sort key (default, energy, danceability, tempo)").Default("default").String()

	// close command
	closeCmd = app.Command("close", "Close the open playlist")

	// select command
	selectCmd   = app.Command("select", "Play a track, or toggle pause when it is the current track")
	selectTrack = selectCmd.Arg("track-id", "Spotify track ID").Required().String()

	// volume command
	volumeCmd   = app.Command("volume", "Set the playback volume")
	volumeLevel = volumeCmd.Arg("level", "Volume between 0 and 1").Required().Float64()

	// teardown command
	teardownCmd = app.Command("teardown", "Stop playback")

	// status command
	statusCmd = app.Command("status", "Show the session status")

	// vibe command
	vibeCmd = app.Command("vibe", "Analyze the open playlist's vibe")

	// subscribe command
	subscribeCmd = app.Command("subscribe", "Subscribe to notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	library := moodboxv1connect.NewLibraryServiceClient(http.DefaultClient, *server)
	playback := moodboxv1connect.NewPlaybackServiceClient(http.DefaultClient, *server)

	ctx := context.Background()

	var err error
	switch command {
	case playlistsCmd.FullCommand():
		err = listPlaylists(ctx, library)
	case openCmd.FullCommand():
		err = open(ctx, library, *openPlaylist, *openSort)
	case closeCmd.FullCommand():
		_, err = library.CloseView(ctx, newRequest(&moodboxv1.CloseViewRequest{}))
	case selectCmd.FullCommand():
		err = selectTrackCmd(ctx, playback, *selectTrack)
	case volumeCmd.FullCommand():
		err = setVolume(ctx, playback, *volumeLevel)
	case teardownCmd.FullCommand():
		_, err = playback.Teardown(ctx, newRequest(&moodboxv1.TeardownRequest{}))
	case statusCmd.FullCommand():
		err = status(ctx, playback)
	case vibeCmd.FullCommand():
		err = analyzeVibe(ctx, library)
	case subscribeCmd.FullCommand():
		err = subscribe(ctx, playback)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// newRequest wraps msg and attaches the API token.
func newRequest[T any](msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if *token != "" {
		req.Header().Set(apiconnect.APITokenHeader, *token)
	}
	return req
}

func listPlaylists(ctx context.Context, client *moodboxv1connect.LibraryServiceClient) error {
	resp, err := client.ListPlaylists(ctx, newRequest(&moodboxv1.ListPlaylistsRequest{}))
	if err != nil {
		return err
	}
	for _, p := range resp.Msg.Playlists {
		fmt.Printf("%s  %-40s %4d tracks  (%s)\n", p.Id, p.Name, p.TotalTracks, p.Owner)
	}
	return nil
}

func open(ctx context.Context, client *moodboxv1connect.LibraryServiceClient, playlistID, sort string) error {
	resp, err := client.OpenPlaylist(ctx, newRequest(&moodboxv1.OpenPlaylistRequest{
		PlaylistId: playlistID,
		Sort:       sort,
	}))
	if err != nil {
		return err
	}

	fmt.Printf("%s (sorted by %s, features %.0f%%)\n\n", resp.Msg.Playlist.Name, resp.Msg.Sort, resp.Msg.FeatureCoverage*100)
	for _, row := range resp.Msg.Rows {
		printRow(row)
	}
	return nil
}

func printRow(row *moodboxv1.TrackRow) {
	t := row.Track
	marker := " "
	switch {
	case row.State.IsPlaying:
		marker = ">"
	case row.State.IsLoading:
		marker = "~"
	case row.State.IsUnavailable:
		marker = "x"
	case row.State.IsCurrent:
		marker = "|"
	}

	features := "   -     -      -"
	if f := t.Features; f != nil {
		features = fmt.Sprintf("e%.2f d%.2f %5.1fbpm", f.Energy, f.Danceability, f.Tempo)
	}
	fmt.Printf("%s %s  %s  %s - %s\n", marker, t.Id, features, strings.Join(t.Artists, ", "), t.Name)
}

func selectTrackCmd(ctx context.Context, client *moodboxv1connect.PlaybackServiceClient, trackID string) error {
	resp, err := client.Select(ctx, newRequest(&moodboxv1.SelectRequest{TrackId: trackID}))
	if err != nil {
		return err
	}
	printState(resp.Msg.State)
	return nil
}

func setVolume(ctx context.Context, client *moodboxv1connect.PlaybackServiceClient, v float64) error {
	resp, err := client.SetVolume(ctx, newRequest(&moodboxv1.SetVolumeRequest{Volume: v}))
	if err != nil {
		return err
	}
	fmt.Printf("Volume: %.2f\n", resp.Msg.Volume)
	return nil
}

func status(ctx context.Context, client *moodboxv1connect.PlaybackServiceClient) error {
	resp, err := client.GetStatus(ctx, newRequest(&moodboxv1.GetStatusRequest{}))
	if err != nil {
		return err
	}
	fmt.Printf("Logged in: %v\n", resp.Msg.LoggedIn)
	if resp.Msg.PlaylistId != "" {
		fmt.Printf("Playlist: %s\n", resp.Msg.PlaylistId)
	}
	printState(resp.Msg.State)
	return nil
}

func analyzeVibe(ctx context.Context, client *moodboxv1connect.LibraryServiceClient) error {
	resp, err := client.AnalyzeVibe(ctx, newRequest(&moodboxv1.AnalyzeVibeRequest{}))
	if err != nil {
		return err
	}
	fmt.Printf("Vibe: %s\n", resp.Msg.Vibe)
	fmt.Printf("Tags: %s\n", strings.Join(resp.Msg.Tags, ", "))
	fmt.Printf("You might also like: %s\n", strings.Join(resp.Msg.SuggestedArtists, ", "))
	return nil
}

func printState(s *moodboxv1.PlaybackState) {
	if s == nil {
		return
	}
	fmt.Printf("Playback: %s", s.Status)
	if s.TrackId != "" {
		fmt.Printf(" track=%s", s.TrackId)
	}
	if s.Source != "" {
		fmt.Printf(" source=%s", s.Source)
	}
	fmt.Printf(" volume=%.2f\n", s.Volume)
}

func subscribe(ctx context.Context, client *moodboxv1connect.PlaybackServiceClient) error {
	stream, err := client.SubscribeNotifications(ctx, newRequest(&moodboxv1.SubscribeNotificationsRequest{}))
	if err != nil {
		return err
	}

	fmt.Println("Subscribed to notifications. Press Ctrl+C to exit.")

	// Handle shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nUnsubscribing...")
		os.Exit(0)
	}()

	for stream.Receive() {
		printNotification(stream.Msg())
	}
	return stream.Err()
}

func printNotification(n *moodboxv1.Notification) {
	fmt.Printf("[%d] %s", n.SequenceNo, n.Type)
	if n.TrackId != "" {
		fmt.Printf(" track=%s", n.TrackId)
	}
	if n.PlaylistId != "" {
		fmt.Printf(" playlist=%s", n.PlaylistId)
	}
	if n.Message != "" {
		fmt.Printf(" message=%q", n.Message)
	}
	fmt.Println()
	printState(n.State)
}
