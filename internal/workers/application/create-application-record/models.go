// internal/workers/application/create-application-record/models.go
package createapplicationrecord

type Input struct {
	ApplicationType string                 `json:"applicationType"`
	FormData        map[string]interface{} `json:"formData"`
}
