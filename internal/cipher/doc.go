// Package cipher exposes the Playfair cipher as named, chainable operations.
//
// # Operations
//
// Every operation is registered at init and looked up by name:
//
//	op, _ := cipher.GetOperation("playfair_decrypt")
//	out, err := op.Execute(ctx, []byte("IKEWENENXLNQLPZSLERUMRHEERYBOFNEINCHCV"), map[string]any{
//	    "keyword": "SUPERSPY",
//	})
//	// out: "HIPXPOPOTOMONSTROSESQUIPPEDALIOPHOBIAX"
//
// Available operations:
//   - playfair_encrypt / playfair_decrypt - params: keyword, fold_j (default true), filler (default "X")
//   - playfair_normalize - reduce free text to A-Z; params: fold_j
//   - group_five / ungroup - classical five-letter blocks; params: size
//
// Key squares are cached per keyword, so repeated calls with the same
// keyword do not rebuild the grid.
//
// # Pipelines
//
//	pipeline := &cipher.Pipeline{
//	    Operations: []cipher.OperationConfig{
//	        {Name: "playfair_normalize"},
//	        {Name: "playfair_encrypt", Parameters: map[string]any{"keyword": "SUPERSPY"}},
//	        {Name: "group_five"},
//	    },
//	}
//	out, err := pipeline.Execute(ctx, []byte("Hide the gold"))
//
// ExecuteWith merges extra parameters into every step, which is how recipes
// that deliberately omit their keyword are run.
//
// # Recipes
//
// RecipeManager stores named pipelines in memory and, given a directory,
// as one JSON file per recipe. BuiltinRecipes are always resolvable by name.
//
// # Detection
//
// PlayfairDetector scores text for structural signs of Playfair ciphertext
// and suggests playfair_decrypt when they are present.
//
// # Thread Safety
//
// Registries, the key square cache and RecipeManager use internal locking.
// Operations are stateless.
package cipher
