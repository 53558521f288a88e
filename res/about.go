package res

// AboutContent contains the Markdown content for the About dialog.
// This is maintained separately for easy updates.
const AboutContent = `A small music player with a live energy visualizer, built with Go and Fyne.

**Features:**
- Play MP3, WAV, OGG and FLAC files or URLs
- Bass, mid and high band meters with a smoothed energy level
- Track list from the music folders, refreshed when files change
- Playback rate, loop and volume controls
`
