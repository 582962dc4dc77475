// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package native

import (
	"fmt"
	"sync"

	"github.com/wavetermdev/nativetree/pkg/util"
)

// PropertyMeta describes one native property. Name is kebab-cased, accessors are
// camelCase method names ("" when not readable/writable).
type PropertyMeta struct {
	Name          string
	Type          string
	Getter        string
	Setter        string
	Nullable      bool
	ConstructOnly bool
}

type SignalMeta struct {
	Name       string
	ParamTypes []string
	ReturnType string
}

// ClassDescriptor is produced by the binding generator for every native class.
type ClassDescriptor struct {
	Name         string
	Parent       string
	Abstract     bool
	Capabilities []Capability
	Properties   []PropertyMeta
	Signals      []SignalMeta
	Methods      []string
	// ConstructorParams lists kebab-cased properties passed positionally to Construct.
	ConstructorParams []string
	Construct         func(args []any) (Object, error)
}

// Class is the flattened, inheritance-resolved view of a descriptor. It is built
// once at registration and never walks the parent chain afterwards.
type Class struct {
	Desc    *ClassDescriptor
	Index   int
	Chain   []string
	Caps    CapSet
	Kind    Kind
	props   map[string]*PropertyMeta
	signals map[string]*SignalMeta
	methods map[string]bool
}

func (c *Class) Name() string {
	return c.Desc.Name
}

func (c *Class) Property(kebabName string) *PropertyMeta {
	return c.props[kebabName]
}

func (c *Class) Signal(kebabName string) *SignalMeta {
	return c.signals[kebabName]
}

func (c *Class) HasMethod(name string) bool {
	return c.methods[name]
}

func (c *Class) IsA(className string) bool {
	for _, name := range c.Chain {
		if name == className {
			return true
		}
	}
	return false
}

// SetterFor resolves the setter accessor of a kebab-cased property, falling back to
// a plain "set<Name>" method when the class exposes one without property metadata.
func (c *Class) SetterFor(kebabName string) string {
	if pm := c.props[kebabName]; pm != nil {
		return pm.Setter
	}
	methodName := "set" + util.PascalCase(kebabName)
	if c.methods[methodName] {
		return methodName
	}
	return ""
}

func (c *Class) GetterFor(kebabName string) string {
	if pm := c.props[kebabName]; pm != nil {
		return pm.Getter
	}
	methodName := "get" + util.PascalCase(kebabName)
	if c.methods[methodName] {
		return methodName
	}
	return ""
}

// Registry maps element type names to classes. Classes are stored arena style in
// a slice and indexed by name.
type Registry struct {
	lock    sync.Mutex
	classes []*Class
	byName  map[string]int
}

func MakeRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Register resolves and stores a descriptor. The parent must already be registered.
func (r *Registry) Register(desc *ClassDescriptor) (*Class, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if desc == nil || desc.Name == "" {
		return nil, fmt.Errorf("class descriptor must have a name")
	}
	if _, ok := r.byName[desc.Name]; ok {
		return nil, fmt.Errorf("class %q already registered", desc.Name)
	}
	class := &Class{
		Desc:    desc,
		Index:   len(r.classes),
		props:   make(map[string]*PropertyMeta),
		signals: make(map[string]*SignalMeta),
		methods: make(map[string]bool),
	}
	if desc.Parent != "" {
		parentIdx, ok := r.byName[desc.Parent]
		if !ok {
			return nil, fmt.Errorf("class %q: parent %q not registered", desc.Name, desc.Parent)
		}
		parent := r.classes[parentIdx]
		class.Chain = append(class.Chain, parent.Chain...)
		class.Caps = parent.Caps
		for k, v := range parent.props {
			class.props[k] = v
		}
		for k, v := range parent.signals {
			class.signals[k] = v
		}
		for k := range parent.methods {
			class.methods[k] = true
		}
	}
	class.Chain = append([]string{desc.Name}, class.Chain...)
	class.Caps = class.Caps.With(desc.Capabilities...)
	for i := range desc.Properties {
		pm := &desc.Properties[i]
		class.props[pm.Name] = pm
	}
	for i := range desc.Signals {
		sm := &desc.Signals[i]
		class.signals[sm.Name] = sm
	}
	for _, m := range desc.Methods {
		class.methods[m] = true
	}
	class.Kind = RankKind(class.Caps)
	r.classes = append(r.classes, class)
	r.byName[desc.Name] = class.Index
	return class, nil
}

func (r *Registry) MustRegister(desc *ClassDescriptor) *Class {
	class, err := r.Register(desc)
	if err != nil {
		panic(err)
	}
	return class
}

// Lookup returns nil for unknown names.
func (r *Registry) Lookup(name string) *Class {
	r.lock.Lock()
	defer r.lock.Unlock()
	idx, ok := r.byName[name]
	if !ok {
		return nil
	}
	return r.classes[idx]
}

// Construct builds a native instance of the class. Constructor arguments are taken
// from props (camelCase keys) in declaration order; a missing non-nullable
// argument is an error.
func (r *Registry) Construct(name string, props map[string]any) (Object, error) {
	class := r.Lookup(name)
	if class == nil {
		return nil, fmt.Errorf("unknown native class %q", name)
	}
	if class.Desc.Abstract || class.Desc.Construct == nil {
		return nil, fmt.Errorf("native class %q is not constructible", name)
	}
	args := make([]any, 0, len(class.Desc.ConstructorParams))
	for _, paramName := range class.Desc.ConstructorParams {
		val, ok := props[util.CamelCase(paramName)]
		if !ok || val == nil {
			pm := class.Property(paramName)
			if pm != nil && !pm.Nullable {
				return nil, fmt.Errorf("native class %q: missing required constructor property %q", name, paramName)
			}
			val = nil
		}
		args = append(args, val)
	}
	return class.Desc.Construct(args)
}
