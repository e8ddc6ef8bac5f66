// Package downloader fetches a video and its subtitle track into a working
// directory.
//
// Two backends implement Fetcher: the yt-dlp client drives the yt-dlp binary
// through an injectable Executor, and the native client uses a pure-Go
// YouTube client. Both request subtitles separately from the video so a
// missing transcript never fails the download.
package downloader
