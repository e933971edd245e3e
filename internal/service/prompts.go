package service

import "fmt"

const questionSystemPrompt = "Eres un terapeuta especializado en crear preguntas de evaluación cognitiva " +
	"para pacientes con problemas de memoria. Siempre respondes en formato JSON."

func questionUserPrompt(description string) string {
	return fmt.Sprintf(`Eres un terapeuta especializado en pacientes con problemas de memoria (como Alzheimer o demencia).
Tienes una foto con esta descripción: %q

Tu tarea es crear UNA pregunta de opción múltiple que ayude a evaluar si el paciente recuerda esta memoria.

La pregunta debe ser:
- Clara y específica sobre la descripción
- Relacionada con detalles importantes de la memoria
- Con exactamente 4 opciones de respuesta
- Una respuesta correcta y tres incorrectas pero creíbles

Responde ÚNICAMENTE con un objeto JSON con este formato:
{
  "question": "¿Pregunta sobre la memoria?",
  "options": ["Opción A", "Opción B", "Opción C", "Opción D"],
  "correctAnswer": 0
}

Donde correctAnswer es el índice (0-3) de la respuesta correcta.`, description)
}

const analysisSystemPrompt = "Eres un terapeuta especializado en pacientes con problemas de memoria. " +
	"Proporciona análisis empáticos y constructivos."

func analysisUserPrompt(score, total int, percentage, avgSeconds float64) string {
	return fmt.Sprintf(`Un paciente ha completado un test de memoria con los siguientes resultados:
- Puntuación: %d/%d (%.1f%%)
- Tiempo promedio por pregunta: %.1f segundos

Proporciona un análisis breve (2-3 oraciones) y recomendaciones para el cuidador.
Sé empático y constructivo.`, score, total, percentage, avgSeconds)
}

const reportSystemPrompt = "Eres un neuropsicólogo que redacta informes clínicos de seguimiento " +
	"para pacientes con deterioro de memoria. Escribes en español, en formato markdown."

func reportUserPrompt(patientName, testsJSON string) string {
	return fmt.Sprintf(`Genera un informe de progreso cognitivo para el paciente %s a partir de estos tests de memoria completados (en orden cronológico):

%s

El informe debe tener exactamente estas cinco secciones con encabezados markdown:
1. Resumen Ejecutivo
2. Análisis de Tendencias
3. Evaluación del Rendimiento
4. Observaciones Clínicas
5. Recomendaciones

Máximo 500 palabras. Usa un tono profesional y empático.`, patientName, testsJSON)
}
