package shaderbuilder

import "fmt"

// TransformInput declares `variable_n = matrixName * inputName`,
// depending on both globals. Used for the MVP/model transforms (F).
func (s *Source) TransformInput(matrixName, inputName string) (int, error) {
	return s.AddSnippet("vec4<f32>",
		fmt.Sprintf("%s * %s", matrixName, inputName),
		"",
		[]string{inputName, matrixName},
		nil)
}

// SampleFieldTexture declares a scalar field-texture lookup, depending
// on the sampler/texture global and the texture-coordinates variable.
func (s *Source) SampleFieldTexture(textureName string, coordVar int) (int, error) {
	coordExpr := fmt.Sprintf("variable_%d", coordVar)
	return s.AddSnippet("f32",
		fmt.Sprintf("textureSample(%s, %s_sampler, %s).r", textureName, textureName, coordExpr),
		"",
		[]string{textureName},
		[]int{coordVar})
}

// ApplyTransferFunction declares a transfer-function lookup on a scalar
// input variable.
func (s *Source) ApplyTransferFunction(transferFunctionName string, inputVar int) (int, error) {
	return s.AddSnippet("vec4<f32>",
		fmt.Sprintf("textureSample(%s, %s_sampler, vec2<f32>(variable_%d, 0.5))", transferFunctionName, transferFunctionName, inputVar),
		"",
		[]string{transferFunctionName},
		[]int{inputVar})
}
