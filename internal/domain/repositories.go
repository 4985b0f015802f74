package domain

import "context"

// ImageSize selects the rendition the server returns for a recipe image
type ImageSize string

const (
	ImageSizeFull  ImageSize = "full"
	ImageSizeThumb ImageSize = "thumb"
)

// Image is a fetched binary image payload
type Image struct {
	Data        []byte
	ContentType string
}

// VersionRepository answers the health probe
type VersionRepository interface {
	// Version returns the cookbook app version ("" if the server omitted it)
	Version(ctx context.Context) (string, error)
}

// RecipeRepository provides the recipe index and single records
type RecipeRepository interface {
	// ListRecipes returns the full recipe index in server order
	ListRecipes(ctx context.Context) ([]RecipeSummary, error)

	// GetRecipe returns one full record. A successful response without a
	// record yields (nil, nil).
	GetRecipe(ctx context.Context, id string) (*RecipeDetail, error)
}

// ImageRepository fetches recipe images out-of-band
type ImageRepository interface {
	GetImage(ctx context.Context, id string, size ImageSize) (Image, error)
}

// SearchRepository runs server-side queries
type SearchRepository interface {
	Search(ctx context.Context, query string) ([]RecipeSummary, error)
}

// CookbookSource combines every remote operation the client uses
type CookbookSource interface {
	VersionRepository
	RecipeRepository
	ImageRepository
	SearchRepository
}

// CredentialProvider returns the current credential without I/O
type CredentialProvider interface {
	Get() Credential
}

// StaticCredential is a CredentialProvider that always returns itself
type StaticCredential Credential

// Get returns the credential
func (c StaticCredential) Get() Credential { return Credential(c) }
