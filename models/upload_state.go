package models

type UploadStage string

const (
	StageIdle               UploadStage = "idle"
	StageUploadingOriginal  UploadStage = "uploadingOriginal"
	StageRemovingBackground UploadStage = "removingBackground"
	StageAnalyzingClothing  UploadStage = "analyzingClothing"
	StageSavingToDatabase   UploadStage = "savingToDatabase"
	StageCompleted          UploadStage = "completed"
	StageFailed             UploadStage = "failed"
)

type progressWindow struct {
	start float64
	end   float64
}

// stageWindows is the only place stage progress maps onto the overall bar.
var stageWindows = map[UploadStage]progressWindow{
	StageUploadingOriginal:  {0, 0.25},
	StageRemovingBackground: {0.25, 0.5},
	StageAnalyzingClothing:  {0.5, 0.75},
	StageSavingToDatabase:   {0.75, 1.0},
}

// UploadState is a snapshot of the single in-flight upload. Progress is the
// fraction completed within the current stage.
type UploadState struct {
	Stage    UploadStage `json:"stage"`
	Progress float64     `json:"progress"`
	Reason   string      `json:"reason,omitempty"`
}

func IdleState() UploadState {
	return UploadState{Stage: StageIdle}
}

func StageState(stage UploadStage, progress float64) UploadState {
	return UploadState{Stage: stage, Progress: clamp01(progress)}
}

func CompletedState() UploadState {
	return UploadState{Stage: StageCompleted, Progress: 1}
}

func FailedState(reason string) UploadState {
	return UploadState{Stage: StageFailed, Reason: reason}
}

func (s UploadState) GlobalProgress() float64 {
	switch s.Stage {
	case StageCompleted:
		return 1
	case StageIdle, StageFailed:
		return 0
	}
	w, ok := stageWindows[s.Stage]
	if !ok {
		return 0
	}
	return w.start + (w.end-w.start)*clamp01(s.Progress)
}

func (s UploadState) IsLoading() bool {
	_, ok := stageWindows[s.Stage]
	return ok
}

func (s UploadState) IsTerminal() bool {
	return s.Stage == StageCompleted || s.Stage == StageFailed
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
