package constants

// DocumentStatus is the canonical lifecycle state for a submitted document.
type DocumentStatus string

// Stable values, ordered by pipeline position. A record's status only ever
// moves forward in this order; DONE and ERROR are terminal.
const (
	DocQueued     DocumentStatus = "QUEUED"     // accepted, waiting for upload
	DocUploading  DocumentStatus = "UPLOADING"  // transport in progress
	DocExtracting DocumentStatus = "EXTRACTING" // analysis call in flight
	DocDone       DocumentStatus = "DONE"       // terminal (possibly degraded)
	DocError      DocumentStatus = "ERROR"      // terminal failure
)

var docStatusRank = map[DocumentStatus]int{
	DocQueued:     0,
	DocUploading:  1,
	DocExtracting: 2,
	DocDone:       3,
	DocError:      3,
}

// Rank returns the pipeline position of s, used to enforce monotonic
// transitions. Unknown statuses rank below QUEUED.
func (s DocumentStatus) Rank() int {
	if r, ok := docStatusRank[s]; ok {
		return r
	}
	return -1
}

// Terminal reports whether no further transitions are permitted from s.
func (s DocumentStatus) Terminal() bool {
	return s == DocDone || s == DocError
}

// VoiceNoteStatus is the lifecycle state for a captured voice note.
type VoiceNoteStatus string

const (
	VoiceRecording  VoiceNoteStatus = "RECORDING"
	VoiceUploading  VoiceNoteStatus = "UPLOADING"
	VoiceProcessing VoiceNoteStatus = "PROCESSING"
	VoiceDone       VoiceNoteStatus = "DONE"
	VoiceError      VoiceNoteStatus = "ERROR"
)

var voiceStatusRank = map[VoiceNoteStatus]int{
	VoiceRecording:  0,
	VoiceUploading:  1,
	VoiceProcessing: 2,
	VoiceDone:       3,
	VoiceError:      3,
}

func (s VoiceNoteStatus) Rank() int {
	if r, ok := voiceStatusRank[s]; ok {
		return r
	}
	return -1
}

func (s VoiceNoteStatus) Terminal() bool {
	return s == VoiceDone || s == VoiceError
}
