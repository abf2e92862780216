/*
Copyright © 2019 the Budyko authors.
This file is part of Budyko.

Budyko is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Budyko is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Budyko.  If not, see <http://www.gnu.org/licenses/>.
*/

package budyko

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/sparse"
)

// Outputter calculates derived output variables from the model results.
//
// outputVariables maps the names of the derived variables to expressions
// that define how they are calculated. Expressions are evaluated
// separately for each cell and month and can use the model outputs
// (ActualEvap, PotentialEvap, Runoff, NetRadiation), the model inputs
// (Precipitation, TMin, TMax, Elevation, KRs, MaxStorage), other derived
// variables, and functions.
type Outputter struct {
	outputVariables map[string]string
	expressions     map[string]*govaluate.EvaluableExpression
	order           []string
}

// ModelVariables are the names of the model variables that can be used
// in output expressions.
var ModelVariables = []string{"ActualEvap", "PotentialEvap", "Runoff", "NetRadiation",
	"Precipitation", "TMin", "TMax", "Elevation", "KRs", "MaxStorage"}

var outputNameRegexp = regexp.MustCompile(`^[A-Za-z]\w*$`)

// NewOutputter initializes a new Outputter and adds a set of default
// output functions. Default functions include:
//
// 'exp(x)' which applies the exponential function e^x.
//
// 'sqrt(x)' which returns the square root of x.
//
// 'max(x, y)' and 'min(x, y)' which return the larger and smaller of
// their arguments.
func NewOutputter(outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	funcs := map[string]govaluate.ExpressionFunction{
		"exp":  unaryFunc("exp", math.Exp),
		"sqrt": unaryFunc("sqrt", math.Sqrt),
		"max":  binaryFunc("max", math.Max),
		"min":  binaryFunc("min", math.Min),
	}
	for key, val := range outputFunctions {
		funcs[key] = val
	}

	model := make(map[string]bool)
	for _, v := range ModelVariables {
		model[v] = true
	}

	o := &Outputter{
		outputVariables: outputVariables,
		expressions:     make(map[string]*govaluate.EvaluableExpression),
	}
	deps := make(map[string][]string)
	for name, expr := range outputVariables {
		if !outputNameRegexp.MatchString(name) {
			return nil, fmt.Errorf("budyko: output variable name '%s' includes unsupported characters", name)
		}
		if model[name] {
			return nil, fmt.Errorf("budyko: output variable name '%s' is already a model variable", name)
		}
		e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, funcs)
		if err != nil {
			return nil, fmt.Errorf("budyko: output variable %s: %v", name, err)
		}
		o.expressions[name] = e
		for _, v := range removeDuplicates(e.Vars()) {
			if model[v] {
				continue
			}
			if _, ok := outputVariables[v]; !ok {
				return nil, fmt.Errorf("budyko: undefined variable name '%s' in output variable %s", v, name)
			}
			deps[name] = append(deps[name], v)
		}
	}
	order, err := evaluationOrder(deps, outputVariables)
	if err != nil {
		return nil, err
	}
	o.order = order
	return o, nil
}

func unaryFunc(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("budyko: got %d arguments for function '%s', but needs 1", len(arg), name)
		}
		x, err := floatArgs(name, arg)
		if err != nil {
			return nil, err
		}
		return f(x[0]), nil
	}
}

func binaryFunc(name string, f func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 2 {
			return nil, fmt.Errorf("budyko: got %d arguments for function '%s', but needs 2", len(arg), name)
		}
		x, err := floatArgs(name, arg)
		if err != nil {
			return nil, err
		}
		return f(x[0], x[1]), nil
	}
}

// floatArgs converts function arguments to numbers.
func floatArgs(name string, arg []interface{}) ([]float64, error) {
	x := make([]float64, len(arg))
	for i, a := range arg {
		v, ok := a.(float64)
		if !ok {
			return nil, fmt.Errorf("budyko: argument %d of function '%s' is %T, not a number", i+1, name, a)
		}
		x[i] = v
	}
	return x, nil
}

// removeDuplicates removes all duplicated strings from a slice, returning a
// slice that contains only unique strings.
func removeDuplicates(s []string) []string {
	result := make([]string, 0, len(s))
	seen := make(map[string]struct{})
	for _, val := range s {
		if _, ok := seen[val]; !ok {
			result = append(result, val)
			seen[val] = struct{}{}
		}
	}
	return result
}

// evaluationOrder sorts the derived variables so that each one comes
// after the variables it depends on.
func evaluationOrder(deps map[string][]string, vars map[string]string) ([]string, error) {
	names := make([]string, 0, len(vars))
	for n := range vars {
		names = append(names, n)
	}
	sort.Strings(names)

	const (
		_ = iota // unvisited
		visiting
		done
	)
	state := make(map[string]int)
	var order []string
	var visit func(n string) error
	visit = func(n string) error {
		switch state[n] {
		case visiting:
			return fmt.Errorf("budyko: output variable %s is defined in terms of itself", n)
		case done:
			return nil
		}
		state[n] = visiting
		for _, d := range deps[n] {
			if err := visit(d); err != nil {
				return err
			}
		}
		state[n] = done
		order = append(order, n)
		return nil
	}
	for _, n := range names {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Evaluate calculates the derived output variables for model d, returning
// arrays with the same shape as the model outputs. Cells that were not
// simulated are set to the no-data value.
func (o *Outputter) Evaluate(d *Model) (map[string]*sparse.DenseArray, error) {
	res := d.Results()
	if res == nil {
		return nil, fmt.Errorf("budyko: the model must be run before output variables are calculated")
	}
	out := make(map[string]*sparse.DenseArray, len(o.order))
	for _, name := range o.order {
		a := sparse.ZerosDense(res.NumCells, MonthsPerYear)
		for i := range a.Elements {
			a.Elements[i] = res.NoData
		}
		out[name] = a
	}
	params := make(map[string]interface{}, len(ModelVariables)+len(o.order))
	for _, c := range d.Cells() {
		if c.Missing {
			continue
		}
		for m := January; m <= December; m++ {
			params["ActualEvap"] = c.ActualEvap[m]
			params["PotentialEvap"] = c.PotentialEvap[m]
			params["Runoff"] = c.Runoff[m]
			params["NetRadiation"] = c.NetRadiation[m]
			params["Precipitation"] = c.Precipitation[m]
			params["TMin"] = c.TMin[m]
			params["TMax"] = c.TMax[m]
			params["Elevation"] = c.Elevation
			params["KRs"] = c.KRs
			params["MaxStorage"] = c.MaxStorage
			for _, name := range o.order {
				v, err := o.expressions[name].Evaluate(params)
				if err != nil {
					return nil, fmt.Errorf("budyko: evaluating output variable %s: %v", name, err)
				}
				f, ok := v.(float64)
				if !ok {
					return nil, fmt.Errorf("budyko: output variable %s evaluates to %T, not a number", name, v)
				}
				params[name] = f
				out[name].Elements[out[name].Index1d(c.Index, int(m))] = f
			}
		}
	}
	return out, nil
}
