package core

import (
	"fmt"

	"github.com/signalworks/ecutopo/tree"
)

// EcuInstance is one ECU node of the system.
type EcuInstance struct {
	sys  *System
	elem *tree.Element
}

func (e EcuInstance) Name() string { return e.elem.Name() }

// Element exposes the backing tree element for identity comparisons.
func (e EcuInstance) Element() *tree.Element { return e.elem }

// SameAs reports whether two handles wrap the same ECU.
func (e EcuInstance) SameAs(other EcuInstance) bool { return e.elem == other.elem }

// CreateEthernetController adds an Ethernet controller to the ECU.
func (e EcuInstance) CreateEthernetController(name string) (EthernetController, error) {
	elem, err := e.createController(KindEthernetController, name)
	if err != nil {
		return EthernetController{}, err
	}
	return EthernetController{sys: e.sys, elem: elem}, nil
}

// CreateCanController adds a CAN controller to the ECU.
func (e EcuInstance) CreateCanController(name string) (CanController, error) {
	elem, err := e.createController(KindCanController, name)
	if err != nil {
		return CanController{}, err
	}
	return CanController{sys: e.sys, elem: elem}, nil
}

// CreateFlexrayController adds a FlexRay controller to the ECU.
func (e EcuInstance) CreateFlexrayController(name string) (FlexrayController, error) {
	elem, err := e.createController(KindFlexrayController, name)
	if err != nil {
		return FlexrayController{}, err
	}
	return FlexrayController{sys: e.sys, elem: elem}, nil
}

func (e EcuInstance) createController(kind tree.Kind, name string) (*tree.Element, error) {
	ctrls, err := e.elem.GetOrCreateChild(KindControllers)
	if err != nil {
		return nil, err
	}
	elem, err := ctrls.CreateNamedChild(kind, name)
	if err != nil {
		return nil, fmt.Errorf("create controller: %w", err)
	}
	return elem, nil
}

// Controllers lists every communication controller of the ECU, across all
// bus kinds.
func (e EcuInstance) Controllers() []Controller {
	ctrls := e.elem.GetChild(KindControllers)
	if ctrls == nil {
		return nil
	}
	var out []Controller
	for _, c := range ctrls.Children() {
		switch c.Kind() {
		case KindEthernetController:
			out = append(out, EthernetController{sys: e.sys, elem: c})
		case KindCanController:
			out = append(out, CanController{sys: e.sys, elem: c})
		case KindFlexrayController:
			out = append(out, FlexrayController{sys: e.sys, elem: c})
		}
	}
	return out
}

// connectorElems returns the raw connector elements of the ECU.
func (e EcuInstance) connectorElems() []*tree.Element {
	conns := e.elem.GetChild(KindConnectors)
	if conns == nil {
		return nil
	}
	return conns.Children()
}
