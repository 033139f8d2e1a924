package dto

// GenerateVideoRequest is the body of POST /api/videos/generate
type GenerateVideoRequest struct {
	Prompt            string `json:"prompt"`
	AdditionalDetails string `json:"additionalDetails"`
	Service           string `json:"service"`
	Model             string `json:"model"`
	VideoType         string `json:"videoType"`
	AspectRatio       string `json:"aspectRatio"`
	RequestedEmail    string `json:"requestedEmail"`
	ImageURL          string `json:"imageUrl"`
	StartFrameURL     string `json:"startFrameUrl"`
	EndFrameURL       string `json:"endFrameUrl"`
}

// VideoCallbackRequest is what the automation worker posts back
type VideoCallbackRequest struct {
	VideoID      string `json:"video_id"`
	VideoURL     string `json:"video_url"`
	Status       string `json:"status"`
	TaskID       string `json:"n8n_task_id"`
	ErrorMessage string `json:"error_message"`
}

// EnhancePromptRequest is the body of POST /api/prompts/enhance
type EnhancePromptRequest struct {
	Prompt    string `json:"prompt" binding:"required"`
	VideoType string `json:"videoType"`
}

// EnhancePromptResponse carries the rewritten prompt
type EnhancePromptResponse struct {
	EnhancedPrompt string `json:"enhancedPrompt"`
}

// SuccessResponse is the minimal acknowledgement body
type SuccessResponse struct {
	Success bool `json:"success"`
}
