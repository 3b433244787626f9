package cropcast

import "github.com/crimson-sun/cropcast/internal/model"

// Error types returned by Cropcast. Use errors.As to inspect them.
type (
	UnknownCategoryError = model.UnknownCategoryError
	SchemaError          = model.SchemaError
	ArtifactLoadError    = model.ArtifactLoadError
	InputError           = model.InputError
)

// Kind classifies an error; see KindOf.
type Kind = model.Kind

const (
	KindUnknown         = model.KindUnknown
	KindUnknownCategory = model.KindUnknownCategory
	KindSchema          = model.KindSchema
	KindArtifactLoad    = model.KindArtifactLoad
	KindInvalidInput    = model.KindInvalidInput
)

// KindOf reports the Kind of the first typed error in err's chain.
func KindOf(err error) Kind {
	return model.KindOf(err)
}
