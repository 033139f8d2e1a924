package gateway

import "context"

// DispatchPayload is the body sent to the external generation worker
type DispatchPayload struct {
	VideoID           string `json:"video_id"`
	UserID            string `json:"user_id"`
	UserEmail         string `json:"user_email"`
	VideoPrompt       string `json:"video_prompt"`
	AdditionalDetails string `json:"additional_details"`
	CallbackURL       string `json:"callback_url"`
	RequestedEmail    string `json:"requested_email"`
	AspectRatio       string `json:"aspect_ratio"`
	Service           string `json:"service"`
	Model             string `json:"model"`
	VideoType         string `json:"video_type"`
	ImageURL          string `json:"image_url,omitempty"`
	StartFrameURL     string `json:"start_frame_url,omitempty"`
	EndFrameURL       string `json:"end_frame_url,omitempty"`
}

// VideoDispatcher hands a job to the external worker at endpoint
type VideoDispatcher interface {
	Dispatch(ctx context.Context, endpoint string, payload DispatchPayload) error
}

// PromptEnhancer asks the automation workflow to rewrite a prompt
type PromptEnhancer interface {
	EnhancePrompt(ctx context.Context, prompt, videoType string) (string, error)
}
